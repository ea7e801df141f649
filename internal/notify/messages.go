package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"registrar/internal/registration/models"
	"registrar/pkg/email"
)

const footer = `{{define "footer"}}{{if .FrontendURL}}  You can do this and more in our web frontend:
  {{.FrontendURL}}

{{end}}  You will receive an email like this whenever the status of this
  registration request changes.

{{if .ContactAddress}}  For any questions address yourself to {{.ContactAddress}}

{{end}}  Please DO NOT reply to this email.

Regards,
The registration desk
{{end}}`

const applicantReceived = `{{define "applicant_received"}}Dear {{.Name}}:

  We have received a Matrix account registration request at
  {{.MatrixURL}}

  Here is the information you need to know:
      * registration id:  {{.RID}}
      * token:            {{.Secret}}

  If you did not apply for this registration, please delete it now.

  To check your registration request information:
{{curl "GET" .RID .Secret .URL ""}}
  To delete your registration request:
{{curl "DELETE" .RID .Secret .URL ""}}
{{template "footer" .}}{{end}}`

const managersReceived = `{{define "managers_received"}}Dear managers:

  We have received a Matrix account registration request at
  {{.MatrixURL}}

  Here is the information you need to know:
      * registration id:  {{.RID}}
      * token:            {{.Secret}}

  To check this registration request information:
{{curl "GET" .RID .Secret .URL ""}}
  To change this registration status (approve or reject):
{{curl "PUT" .RID .Secret .URL "{\"status\": \"<options>\"}"}}
          Options: approved | rejected

{{template "footer" .}}{{end}}`

const applicantStatus = `{{define "applicant_status"}}Dear {{.Name}}:

  The status of the registration request {{.RID}} changed to: {{.Status}}.

{{if eq .Status "approved"}}  IMPORTANT:
  To finish your registration request and create your Matrix account,
  send the username you want to have:
{{curl "PATCH" .RID "<your token>" .URL "{\"matrix_status\": \"processing\", \"username\": \"<username>\"}"}}
{{end}}{{template "footer" .}}{{end}}`

const managersStatus = `{{define "managers_status"}}Dear managers:

  The status of the registration request {{.RID}} changed to: {{.Status}}.

{{template "footer" .}}{{end}}`

const applicantMatrix = `{{define "applicant_matrix"}}Dear {{.Name}}:

  The Matrix status of the registration request {{.RID}} changed to: {{.Status}}.

{{if .UserID}}  Here is your Matrix account user identifier for {{.HomeServer}}:
      {{.UserID}}

  Use the password you received when you requested the account.

{{end}}{{template "footer" .}}{{end}}`

const managersMatrix = `{{define "managers_matrix"}}Dear managers:

  The Matrix status of the registration request {{.RID}} changed to: {{.Status}}.

{{template "footer" .}}{{end}}`

var templates = template.Must(template.New("notify").
	Funcs(template.FuncMap{"curl": curlCommand}).
	Parse(footer + applicantReceived + managersReceived + applicantStatus + managersStatus + applicantMatrix + managersMatrix))

// Account identifies a provisioned homeserver account in messages.
type Account struct {
	UserID     string
	HomeServer string
}

// Settings is the static content shared by every message.
type Settings struct {
	// SenderAddress is the From address of every message.
	SenderAddress     string
	ManagersAddresses []string
	SubjectPrefix     string
	ContactAddress    string
	FrontendURL       string
	MatrixURL         string
	// BaseURL is where the registrations API is reachable, including any prefix.
	BaseURL string
}

type messageData struct {
	Name           string
	RID            string
	Secret         string
	Status         string
	URL            string
	MatrixURL      string
	FrontendURL    string
	ContactAddress string
	UserID         string
	HomeServer     string
}

// Composer renders the notifications for registration events.
type Composer struct {
	settings Settings
}

func NewComposer(settings Settings) *Composer {
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	return &Composer{settings: settings}
}

// RegistrationReceived needs the plaintext tokens, so it can only be
// composed from the record returned by create.
func (c *Composer) RegistrationReceived(reg *models.Registration) ([]Message, error) {
	var out []Message
	if reg.Email != "" {
		data := c.data(reg, email.DisplayName(reg.Email, "applicant"))
		data.Secret = reg.Token
		msg, err := c.render("applicant_received", "Registration received", []string{reg.Email}, data)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	if len(c.settings.ManagersAddresses) > 0 {
		data := c.data(reg, "")
		data.Secret = reg.ManagerToken
		msg, err := c.render("managers_received", "Registration received", c.settings.ManagersAddresses, data)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (c *Composer) StatusChanged(reg *models.Registration) ([]Message, error) {
	return c.pair(reg, "Registration status changed", "applicant_status", "managers_status",
		email.DisplayName(reg.Email, "applicant"), string(reg.Status), nil)
}

// MatrixStatusChanged addresses the applicant by username; account is nil
// when provisioning failed.
func (c *Composer) MatrixStatusChanged(reg *models.Registration, account *Account) ([]Message, error) {
	name := reg.Username
	if name == "" {
		name = email.DisplayName(reg.Email, "applicant")
	}
	return c.pair(reg, "Matrix registration status changed", "applicant_matrix", "managers_matrix",
		name, string(reg.MatrixStatus), account)
}

func (c *Composer) pair(reg *models.Registration, subject, applicantTmpl, managersTmpl, name, status string, account *Account) ([]Message, error) {
	var out []Message
	if reg.Email != "" {
		data := c.data(reg, name)
		data.Status = status
		if account != nil {
			data.UserID = account.UserID
			data.HomeServer = account.HomeServer
		}
		msg, err := c.render(applicantTmpl, subject, []string{reg.Email}, data)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	if len(c.settings.ManagersAddresses) > 0 {
		data := c.data(reg, "")
		data.Status = status
		msg, err := c.render(managersTmpl, subject, c.settings.ManagersAddresses, data)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (c *Composer) data(reg *models.Registration, name string) messageData {
	return messageData{
		Name:           name,
		RID:            reg.RID,
		URL:            c.settings.BaseURL + "/v1/registrations/" + reg.RID + "/",
		MatrixURL:      c.settings.MatrixURL,
		FrontendURL:    c.settings.FrontendURL,
		ContactAddress: c.settings.ContactAddress,
	}
}

func (c *Composer) render(name, subject string, to []string, data messageData) (Message, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{
		From:    c.settings.SenderAddress,
		To:      to,
		Subject: c.settings.SubjectPrefix + subject,
		Body:    buf.String(),
	}, nil
}

// curlCommand renders a copy-pasteable command for the registrations API.
func curlCommand(method, rid, secret, url, body string) string {
	lines := []string{
		"      * Open your terminal and type:",
		"          curl \\",
		"              -X " + method + " \\",
		"              -u " + rid + ":" + secret + " \\",
		`              -H "Accept: application/json" \`,
	}
	if body != "" {
		escaped := strings.ReplaceAll(body, `"`, `\"`)
		lines = append(lines,
			`              -H "Content-Type: application/json" \`,
			`              -d "`+escaped+`" \`,
		)
	}
	lines = append(lines, `              "`+url+`"`)
	return strings.Join(lines, "\n") + "\n"
}
