package mailer

import (
	"gopkg.in/gomail.v2"
)

// Mailer delivers campaign mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New creates a mailer for the given SMTP endpoint.
func New(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}
}

// Send delivers one message per recipient. It returns the first error
// encountered; recipients before the failure keep their mail.
func (m *Mailer) Send(recipients []string, subject, body string) error {
	for _, to := range recipients {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/html", body)
		if err := m.dialer.DialAndSend(msg); err != nil {
			return err
		}
	}
	return nil
}
