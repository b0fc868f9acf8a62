// internal/adapters/out/mail/sendgrid_mailer.go
package mail

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	orderdom "tcon/internal/domain/order"
)

// SendGridMailer implements usecase.ConfirmationMailer via SendGrid.
type SendGridMailer struct {
	apiKey string
	from   string
}

func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		apiKey: strings.TrimSpace(apiKey),
		from:   strings.TrimSpace(from),
	}
}

// SendOrderConfirmation mails the buyer a plain-text order summary.
func (m *SendGridMailer) SendOrderConfirmation(ctx context.Context, o orderdom.Order) error {
	if m == nil || m.apiKey == "" {
		return fmt.Errorf("sendgrid mailer: api key is empty")
	}
	if m.from == "" {
		return fmt.Errorf("sendgrid mailer: from address is empty")
	}
	to := strings.TrimSpace(o.Buyer.Email())
	if to == "" {
		return fmt.Errorf("sendgrid mailer: buyer email is empty")
	}

	subject := fmt.Sprintf("Your order %s is confirmed", o.ID)
	body := buildConfirmationBody(o)

	fromEmail := sgmail.NewEmail("Tcon", m.from)
	toEmail := sgmail.NewEmail(o.Buyer.Name(), to)
	htmlContent := fmt.Sprintf("<pre>%s</pre>", body)

	message := sgmail.NewSingleEmail(fromEmail, subject, toEmail, body, htmlContent)

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		log.Printf("[sendgrid] error status=%d, body=%s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	log.Printf("[sendgrid] confirmation sent: status=%d to=%s order=%s", response.StatusCode, to, o.ID)
	return nil
}

func buildConfirmationBody(o orderdom.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order, %s!\n\n", o.Buyer.Name())
	fmt.Fprintf(&b, "Order %s (%s)\n", o.ID, o.OrderTime.Format("2006-01-02 15:04 MST"))
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %s x%d = %d\n", it.Name, it.Qty, it.UnitPrice*int64(it.Qty))
	}
	fmt.Fprintf(&b, "\nTotal: %d\nPayment: %s\n", o.Total, o.PaymentMethod)
	return b.String()
}
