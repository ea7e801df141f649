package audit

// Event names an audit-relevant action. Values are stable: dashboards and
// log queries match on them.
type Event string

const (
	EventRegistrationCreated       Event = "registration_created"
	EventRegistrationStatusChanged Event = "registration_status_changed"
	EventRegistrationDeleted       Event = "registration_deleted"
	EventAccountRequested          Event = "account_requested"
	EventProvisioningSucceeded     Event = "provisioning_succeeded"
	EventProvisioningFailed        Event = "provisioning_failed"
	EventAuthenticationFailed      Event = "authentication_failed"
	EventAuthorizationDenied       Event = "authorization_denied"
	EventRateLimitExceeded         Event = "rate_limit_exceeded"
)
