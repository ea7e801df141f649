package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/registration/models"
)

func testSettings() Settings {
	return Settings{
		SenderAddress:     "registrar@example.org",
		ManagersAddresses: []string{"gate@example.org", "keeper@example.org"},
		SubjectPrefix:     "[Test] ",
		ContactAddress:    "help@example.org",
		MatrixURL:         "https://matrix.example.org",
		BaseURL:           "https://reg.example.org/api/",
	}
}

func testRegistration() *models.Registration {
	return &models.Registration{
		RID:          "Ab3dE9",
		Email:        "jane.doe@example.org",
		Token:        "applicant-secret",
		ManagerToken: "manager-secret",
		Status:       models.StatusPending,
		MatrixStatus: models.MatrixStatusPending,
	}
}

func TestRegistrationReceived(t *testing.T) {
	c := NewComposer(testSettings())

	msgs, err := c.RegistrationReceived(testRegistration())
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	applicant, managers := msgs[0], msgs[1]
	assert.Equal(t, "registrar@example.org", applicant.From)
	assert.Equal(t, []string{"jane.doe@example.org"}, applicant.To)
	assert.Equal(t, "[Test] Registration received", applicant.Subject)
	assert.Contains(t, applicant.Body, "Dear Jane Doe:")
	assert.Contains(t, applicant.Body, "applicant-secret")
	assert.NotContains(t, applicant.Body, "manager-secret")
	assert.Contains(t, applicant.Body, "-X DELETE")
	assert.Contains(t, applicant.Body, `"https://reg.example.org/api/v1/registrations/Ab3dE9/"`)
	assert.Contains(t, applicant.Body, "help@example.org")
	assert.NotContains(t, applicant.Body, "web frontend")

	assert.Equal(t, "registrar@example.org", managers.From)
	assert.Equal(t, []string{"gate@example.org", "keeper@example.org"}, managers.To)
	assert.Contains(t, managers.Body, "manager-secret")
	assert.NotContains(t, managers.Body, "applicant-secret")
	assert.Contains(t, managers.Body, `-d "{\"status\": \"<options>\"}"`)
}

func TestRecipientsAreOptional(t *testing.T) {
	settings := testSettings()
	settings.ManagersAddresses = nil
	c := NewComposer(settings)

	reg := testRegistration()
	reg.Email = ""
	msgs, err := c.RegistrationReceived(reg)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStatusChanged(t *testing.T) {
	settings := testSettings()
	settings.FrontendURL = "https://reg.example.org"
	c := NewComposer(settings)
	reg := testRegistration()

	t.Run("approval explains how to request the account", func(t *testing.T) {
		reg.Status = models.StatusApproved
		msgs, err := c.StatusChanged(reg)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Contains(t, msgs[0].Body, "changed to: approved")
		assert.Contains(t, msgs[0].Body, "-X PATCH")
		assert.Contains(t, msgs[0].Body, "<your token>")
		assert.NotContains(t, msgs[0].Body, "applicant-secret")
		assert.Contains(t, msgs[0].Body, "https://reg.example.org\n")
		assert.NotContains(t, msgs[1].Body, "-X PATCH")
	})

	t.Run("rejection has no instructions", func(t *testing.T) {
		reg.Status = models.StatusRejected
		msgs, err := c.StatusChanged(reg)
		require.NoError(t, err)
		assert.Contains(t, msgs[0].Body, "changed to: rejected")
		assert.NotContains(t, msgs[0].Body, "-X PATCH")
	})
}

func TestMatrixStatusChanged(t *testing.T) {
	c := NewComposer(testSettings())
	reg := testRegistration()
	reg.Username = "jdoe"
	reg.Status = models.StatusApproved
	reg.MatrixStatus = models.MatrixStatusSuccess

	msgs, err := c.MatrixStatusChanged(reg, &Account{UserID: "@jdoe:example.org", HomeServer: "example.org"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Body, "Dear jdoe:")
	assert.Contains(t, msgs[0].Body, "@jdoe:example.org")
	assert.Contains(t, msgs[1].Body, "Matrix status of the registration request Ab3dE9 changed to: success")
	assert.NotContains(t, msgs[1].Body, "@jdoe:example.org")

	reg.MatrixStatus = models.MatrixStatusFailed
	msgs, err = c.MatrixStatusChanged(reg, nil)
	require.NoError(t, err)
	assert.Contains(t, msgs[0].Body, "changed to: failed")
	assert.NotContains(t, msgs[0].Body, "user identifier")
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Message
	fail bool
}

func (n *recordingNotifier) Notify(_ context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	if n.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func TestServiceDeliversEveryMessage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &recordingNotifier{fail: true}
	svc := NewService(NewComposer(testSettings()), notifier, logger)

	err := svc.RegistrationReceived(context.Background(), testRegistration())
	require.Error(t, err)
	assert.Len(t, notifier.sent, 2)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, n.Notify(context.Background(), Message{
		From:    "registrar@example.org",
		To:      []string{"a@b"},
		Subject: "s",
		Body:    "secret body",
	}))

	assert.Contains(t, buf.String(), `"from":"registrar@example.org"`)
	assert.NotContains(t, buf.String(), "secret body", "bodies are only logged at debug")
}
