package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/zachbush96/treelead-backend/pkg/config"
	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
)

var alertEmailTmpl = template.Must(template.New("lead_alert").Parse(`
<p>Hi {{.BuyerName}},</p>
<p>A new <strong>{{.Category}}</strong> lead just opened in <strong>{{.Location}}</strong>.</p>
<ul>
  <li>Asking price: ${{.AskingPrice}}</li>
  {{if .Description}}<li>{{.Description}}</li>{{end}}
</ul>
<p>Reply to this email or confirm payment to claim it. First confirmed payment wins; the customer's contact details are released to the winning buyer only.</p>
<p>Lead reference: {{.LeadID}}</p>
`))

type alertEmailData struct {
	BuyerName   string
	Category    string
	Location    string
	AskingPrice string
	Description string
	LeadID      string
}

type smtpDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier delivers lead alerts over SMTP.
type EmailNotifier struct {
	dialer smtpDialer
	from   string
}

// NewEmailNotifier builds an email notifier from SMTP settings.
func NewEmailNotifier(cfg config.SMTPConfig) (*EmailNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host required")
	}
	return &EmailNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}, nil
}

func (n *EmailNotifier) Channel() enums.InterestChannel {
	return enums.ChannelEmail
}

func (n *EmailNotifier) Send(_ context.Context, alert Alert, buyer *models.Business) error {
	location := alert.Zip
	if alert.City != "" {
		location = fmt.Sprintf("%s (%s)", alert.City, alert.Zip)
	}

	var body bytes.Buffer
	err := alertEmailTmpl.Execute(&body, alertEmailData{
		BuyerName:   buyer.Name,
		Category:    alert.Category,
		Location:    location,
		AskingPrice: alert.AskingPrice,
		Description: alert.Description,
		LeadID:      alert.LeadID,
	})
	if err != nil {
		return fmt.Errorf("render alert email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", buyer.Email)
	m.SetHeader("Subject", fmt.Sprintf("New %s lead in %s for $%s", alert.Category, location, alert.AskingPrice))
	m.SetBody("text/html", body.String())

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}
