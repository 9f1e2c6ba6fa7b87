package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"book-network-backend/internal/logger"
)

const activationSubject = "Account activation"

var activationTemplate = template.Must(template.New("activate").Parse(`<html>
<body>
<p>Hello {{.Name}},</p>
<p>Your account has been created. Please use the code below to activate it:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{.Code}}</p>
<p><a href="{{.Link}}">Activate your account</a></p>
<p>The code expires shortly. Requesting activation with an expired code sends you a new one.</p>
<p>Best regards,<br>The Book Network Team</p>
</body>
</html>`))

type activationMail struct {
	Name string
	Code string
	Link string
}

func buildActivationMail(fullName, code, activationURL string) (plain, html string, err error) {
	link := activationURL
	if u, perr := url.Parse(activationURL); perr == nil {
		q := u.Query()
		q.Set("token", code)
		u.RawQuery = q.Encode()
		link = u.String()
	}

	var buf bytes.Buffer
	if err := activationTemplate.Execute(&buf, activationMail{Name: fullName, Code: code, Link: link}); err != nil {
		return "", "", fmt.Errorf("render activation email: %w", err)
	}
	plain = fmt.Sprintf("Hello %s,\n\nYour activation code is: %s\n\nActivate your account at %s\n\nBest regards,\nThe Book Network Team", fullName, code, link)
	return plain, buf.String(), nil
}

// sendgridClient is the part of *sendgrid.Client used here.
type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type sendGridEmailService struct {
	client    sendgridClient
	fromEmail string
	fromName  string
}

func NewSendGridEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &sendGridEmailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridEmailService) SendActivationEmail(ctx context.Context, to, fullName, code, activationURL string) error {
	plain, html, err := buildActivationMail(fullName, code, activationURL)
	if err != nil {
		return err
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.fromEmail),
		activationSubject,
		mail.NewEmail(fullName, to),
		plain,
		html,
	)

	logger.ExternalServiceCall("sendgrid", "send_activation_email", "to", to)
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send_activation_email", err, "to", to)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// logEmailService writes activation mails to the log instead of sending them.
type logEmailService struct{}

func NewLogEmailService() EmailService {
	return logEmailService{}
}

func (logEmailService) SendActivationEmail(ctx context.Context, to, fullName, code, activationURL string) error {
	plain, _, err := buildActivationMail(fullName, code, activationURL)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Activation email (not sent)", "to", to, "subject", activationSubject, "body", plain)
	return nil
}
