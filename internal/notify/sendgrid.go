package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/modessa/modessa/internal/domain"
)

// SendGridSender sends customer emails through the SendGrid API.
type SendGridSender struct {
	client  *sendgrid.Client
	from    *mail.Email
	adminTo *mail.Email
	logger  *slog.Logger
}

// NewSendGridSender creates a SendGrid-backed sender. adminEmail receives
// order alerts; leave it empty to skip email alerts entirely.
func NewSendGridSender(apiKey, fromName, fromEmail, adminEmail string, logger *slog.Logger) *SendGridSender {
	if fromEmail == "" {
		fromEmail = DefaultFromEmail
	}
	if fromName == "" {
		fromName = DefaultFromName
	}
	s := &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
	if adminEmail != "" {
		s.adminTo = mail.NewEmail("Modessa Orders", adminEmail)
	}
	return s
}

// OrderConfirmation emails the buyer a summary of their placed order.
func (s *SendGridSender) OrderConfirmation(ctx context.Context, order *domain.Order) error {
	if order.Email == "" {
		return nil
	}

	subject := fmt.Sprintf("Your Modessa order %s is confirmed", order.ID)
	text := orderSummaryText(order)
	html := orderSummaryHTML(order)

	to := mail.NewEmail(order.Name, order.Email)
	message := mail.NewSingleEmail(s.from, subject, to, text, html)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", response.StatusCode, response.Body)
	}

	s.logger.Info("order confirmation sent", "order_id", order.ID, "to", order.Email)
	return nil
}

// OrderAlert emails the configured admin address about a new order.
func (s *SendGridSender) OrderAlert(ctx context.Context, order *domain.Order) error {
	if s.adminTo == nil {
		return nil
	}

	subject := fmt.Sprintf("New COD order %s (%s)", order.ID, formatCents(order.TotalCents))
	text := orderSummaryText(order)
	message := mail.NewSingleEmail(s.from, subject, s.adminTo, text, orderSummaryHTML(order))

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

func orderSummaryText(order *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n\n", order.ID)
	for _, item := range order.Items {
		size := item.Size
		if size != "" {
			size = " (" + size + ")"
		}
		fmt.Fprintf(&b, "%d x %s%s - %s\n", item.Quantity, item.Name, size, formatCents(item.UnitCents*int64(item.Quantity)))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", formatCents(order.TotalCents))
	fmt.Fprintf(&b, "Payment: cash on delivery\n")
	fmt.Fprintf(&b, "Deliver to: %s, %s (%s)\n", order.Name, order.Address, order.Phone)
	return b.String()
}

func orderSummaryHTML(order *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Order %s</h2><ul>", order.ID)
	for _, item := range order.Items {
		size := item.Size
		if size != "" {
			size = " (" + size + ")"
		}
		fmt.Fprintf(&b, "<li>%d &times; %s%s &mdash; %s</li>", item.Quantity, item.Name, size, formatCents(item.UnitCents*int64(item.Quantity)))
	}
	fmt.Fprintf(&b, "</ul><p><strong>Total: %s</strong> (cash on delivery)</p>", formatCents(order.TotalCents))
	fmt.Fprintf(&b, "<p>Deliver to: %s, %s (%s)</p>", order.Name, order.Address, order.Phone)
	return b.String()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
