// Package mailer sends admission emails through the Resend API.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"guestlist/entity"
	"guestlist/lib/sl"
	"html/template"
	"log/slog"
	"net/url"

	"github.com/resend/resend-go/v2"
)

const qrServiceUrl = "https://api.qrserver.com/v1/create-qr-code/"

var ErrDisabled = errors.New("mailer disabled: api key not configured")

type Config struct {
	ApiKey     string
	From       string
	Subject    string
	EventTitle string
	LogoUrl    string
}

type Mailer struct {
	client *resend.Client
	conf   Config
	tmpl   *template.Template
	log    *slog.Logger
}

func New(conf Config, log *slog.Logger) *Mailer {
	m := &Mailer{
		conf: conf,
		tmpl: template.Must(template.New("admission").Parse(admissionTemplate)),
		log:  log.With(sl.Module("mailer")),
	}
	if conf.ApiKey != "" {
		m.client = resend.NewClient(conf.ApiKey)
	} else {
		m.log.Warn("resend api key not set; admission emails will not be sent")
	}
	return m
}

// SendAdmission emails the guest a QR code that encodes the guest id.
func (m *Mailer) SendAdmission(ctx context.Context, guest *entity.Guest) error {
	if m.client == nil {
		return ErrDisabled
	}
	if guest.Email == "" {
		return fmt.Errorf("guest %s has no email", guest.Id)
	}

	body, err := m.Render(guest)
	if err != nil {
		return err
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.conf.From,
		To:      []string{guest.Email},
		Subject: m.conf.Subject,
		Html:    body,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	m.log.With(
		sl.Secret("guest_id", guest.Id),
		slog.String("email_id", sent.Id),
	).Debug("admission email sent")
	return nil
}

type admissionData struct {
	EventTitle string
	LogoUrl    string
	FirstName  string
	QrUrl      string
	Code       string
}

func (m *Mailer) Render(guest *entity.Guest) (string, error) {
	data := admissionData{
		EventTitle: m.conf.EventTitle,
		LogoUrl:    m.conf.LogoUrl,
		FirstName:  guest.FirstName,
		QrUrl:      QrImageUrl(guest.Id),
		Code:       guest.Id,
	}
	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render admission email: %w", err)
	}
	return buf.String(), nil
}

// QrImageUrl returns an image URL whose QR payload is exactly code.
func QrImageUrl(code string) string {
	q := url.Values{}
	q.Set("size", "250x250")
	q.Set("data", code)
	q.Set("color", "000000")
	q.Set("bgcolor", "ffffff")
	q.Set("margin", "10")
	return qrServiceUrl + "?" + q.Encode()
}

const admissionTemplate = `<!DOCTYPE html>
<html>
  <body style="background-color:#000000;margin:0;padding:0;font-family:Helvetica,Arial,sans-serif;">
    <div style="max-width:600px;margin:0 auto;padding:40px 20px;text-align:center;">
      {{if .LogoUrl}}<img src="{{.LogoUrl}}" alt="{{.EventTitle}}" style="width:100px;height:100px;border-radius:12px;margin-bottom:20px;" />{{end}}
      <h1 style="color:#ffffff;font-size:32px;letter-spacing:4px;margin:0;">{{.EventTitle}}</h1>
      <p style="color:#a3a3a3;font-size:16px;margin:30px 0;">
        Welcome, <strong style="color:#ffffff;">{{.FirstName}}</strong>.<br>
        Show this QR code at the entrance.
      </p>
      <div style="background-color:#1a1a1a;padding:20px;display:inline-block;border-radius:20px;">
        <img src="{{.QrUrl}}" alt="QR" style="border-radius:10px;display:block;" />
      </div>
      <p style="margin-top:20px;color:#525252;font-size:10px;text-transform:uppercase;">ID: {{.Code}}</p>
    </div>
  </body>
</html>
`
