// Package notify sends the reset summary mail.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"presusimple/internal/config"
	"presusimple/internal/models"
)

// Sender delivers a composed message.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier mails a summary of a reset to the user.
type EmailNotifier struct {
	cfg    config.EmailConfig
	sender Sender
}

// NewEmailNotifier returns nil when email is disabled.
func NewEmailNotifier(cfg config.EmailConfig) *EmailNotifier {
	if !cfg.Enabled {
		return nil
	}
	return &EmailNotifier{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewEmailNotifierWithSender uses sender instead of an SMTP dialer.
func NewEmailNotifierWithSender(cfg config.EmailConfig, sender Sender) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, sender: sender}
}

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>Your budget for {{.Period}} was reset</h2>
    <p>Spent this period: <strong>{{.Snapshot.TotalSpent.StringFixed 2}}</strong> across {{.Snapshot.ExpenseCount}} entries.</p>
    <p>Allocated: {{.Snapshot.TotalBudgeted.StringFixed 2}} &middot; Still available: {{.Snapshot.TotalAvailable.StringFixed 2}}</p>
    <table cellpadding="6" style="border-collapse: collapse;">
        <tr><th align="left">Section</th><th align="left">Category</th><th align="right">Budgeted</th><th align="right">Spent</th></tr>
        {{range .Snapshot.Categories}}<tr><td>{{.Section}}</td><td>{{.Name}}</td><td align="right">{{.Budgeted.StringFixed 2}}</td><td align="right">{{.Spent.StringFixed 2}}</td></tr>
        {{end}}
    </table>
    <p style="color: #666;">Your allocations carry over; spending starts again from zero.</p>
</body>
</html>
`))

// NotifyReset mails the snapshot summary to email.
func (n *EmailNotifier) NotifyReset(email string, snapshot *models.ResetSnapshot) error {
	body, err := renderReset(snapshot)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.cfg.From, "Presusimple"))
	m.SetHeader("To", email)
	m.SetHeader("Subject", fmt.Sprintf("Budget reset for %s", period(snapshot)))
	m.SetBody("text/html", body)

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send reset summary: %w", err)
	}
	return nil
}

func renderReset(snapshot *models.ResetSnapshot) (string, error) {
	var buf bytes.Buffer
	err := resetTemplate.Execute(&buf, struct {
		Period   string
		Snapshot *models.ResetSnapshot
	}{Period: period(snapshot), Snapshot: snapshot})
	if err != nil {
		return "", fmt.Errorf("render reset summary: %w", err)
	}
	return buf.String(), nil
}

func period(s *models.ResetSnapshot) string {
	return fmt.Sprintf("%s %d", time.Month(s.Month), s.Year)
}
