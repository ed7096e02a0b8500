package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/zachbush96/treelead-backend/pkg/config"
	"github.com/zachbush96/treelead-backend/pkg/db/models"
)

var saleConfirmationTmpl = template.Must(template.New("sale_confirmation").Parse(`
<p>Hi {{.BuyerName}},</p>
<p>Your payment for the <strong>{{.Category}}</strong> lead in <strong>{{.Location}}</strong> is confirmed. The job is yours.</p>
<p>Customer contact:</p>
<ul>
  <li>Name: {{.ContactName}}</li>
  {{if .ContactPhone}}<li>Phone: {{.ContactPhone}}</li>{{end}}
  {{if .ContactEmail}}<li>Email: {{.ContactEmail}}</li>{{end}}
</ul>
<p>Amount charged: ${{.SoldPrice}}</p>
<p>Lead reference: {{.LeadID}}</p>
`))

type saleConfirmationData struct {
	BuyerName    string
	Category     string
	Location     string
	ContactName  string
	ContactPhone string
	ContactEmail string
	SoldPrice    string
	LeadID       string
}

// SaleConfirmer emails the winning buyer after settlement. This is the only
// path that puts the customer contact on the wire.
type SaleConfirmer struct {
	dialer smtpDialer
	from   string
}

// NewSaleConfirmer builds a confirmation sender from SMTP settings.
func NewSaleConfirmer(cfg config.SMTPConfig) (*SaleConfirmer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host required")
	}
	return &SaleConfirmer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}, nil
}

func (s *SaleConfirmer) SendSaleConfirmation(_ context.Context, lead *models.Lead, buyer *models.Business) error {
	location := lead.Zip
	if lead.City != "" {
		location = fmt.Sprintf("%s (%s)", lead.City, lead.Zip)
	}
	soldPrice := lead.AskingPrice.StringFixed(2)
	if lead.SoldPrice != nil {
		soldPrice = lead.SoldPrice.StringFixed(2)
	}

	var body bytes.Buffer
	err := saleConfirmationTmpl.Execute(&body, saleConfirmationData{
		BuyerName:    buyer.Name,
		Category:     string(lead.Category),
		Location:     location,
		ContactName:  lead.Contact.Name,
		ContactPhone: lead.Contact.Phone,
		ContactEmail: lead.Contact.Email,
		SoldPrice:    soldPrice,
		LeadID:       lead.ID.String(),
	})
	if err != nil {
		return fmt.Errorf("render sale confirmation: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", buyer.Email)
	m.SetHeader("Subject", fmt.Sprintf("Lead confirmed: %s in %s", lead.Category, location))
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send sale confirmation: %w", err)
	}
	return nil
}
