package mail

import (
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/leadscout/internal/usecase"
)

type ReportEmailData struct {
	Count int
	Cards []usecase.LeadCard
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	send func(*gomail.Message) error
}
