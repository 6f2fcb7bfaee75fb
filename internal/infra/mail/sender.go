package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/usecase"
)

//go:embed templates/*.html
var templates embed.FS

var reportTemplate = template.Must(template.ParseFS(templates, "templates/classification_report.html"))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	s := &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
	s.send = func(m *gomail.Message) error {
		return gomail.NewDialer(s.Host, s.Port, s.User, s.Password).DialAndSend(m)
	}
	return s
}

// SendClassificationReport mails the operator a summary of freshly saved leads.
func (s *EmailSender) SendClassificationReport(to string, leads []entity.EnrichedLead) error {
	m, err := s.buildReport(to, leads)
	if err != nil {
		return err
	}

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send report over SMTP: %w", err)
	}
	return nil
}

func (s *EmailSender) buildReport(to string, leads []entity.EnrichedLead) (*gomail.Message, error) {
	data := ReportEmailData{
		Count: len(leads),
		Cards: usecase.NewLeadCards(leads),
	}

	var body bytes.Buffer
	if err := reportTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to render report template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("%d new leads saved", len(leads)))
	m.SetBody("text/html", body.String())
	return m, nil
}
