package app

import (
	"errors"
	"strings"

	"github.com/charlesng35/notula/pkg/mail"
)

// Validate checks the settings needed to deliver invitations and reminders.
// Disabled SMTP is always valid.
func (c EmailConfig) Validate() error {
	smtp := c.SMTP
	if !smtp.Enabled {
		return nil
	}
	if strings.TrimSpace(smtp.Host) == "" {
		return errors.New("email.smtp.host must be configured when smtp is enabled")
	}
	if strings.TrimSpace(smtp.From) == "" {
		return errors.New("email.smtp.from must be configured when smtp is enabled")
	}
	if smtp.Port <= 0 || smtp.Port > 65535 {
		return errors.New("email.smtp.port must be between 1 and 65535")
	}
	return nil
}

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	smtp := c.SMTP
	return mail.SMTPSettings{
		Enabled:  smtp.Enabled,
		Host:     strings.TrimSpace(smtp.Host),
		Port:     smtp.Port,
		Username: smtp.Username,
		Password: smtp.Password,
		From:     strings.TrimSpace(smtp.From),
		UseTLS:   smtp.UseTLS,
		Timeout:  smtp.Timeout,
	}
}
