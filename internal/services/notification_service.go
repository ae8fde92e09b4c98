// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/models"
)

// Mailer is satisfied by *gomail.Dialer.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// OrderNotifier is told about order lifecycle events.
type OrderNotifier interface {
	SendOrderPlaced(order *models.Order, user *models.User) error
	SendOrderPaid(order *models.Order, user *models.User) error
	SendOrderDelivered(order *models.Order, user *models.User) error
}

type NotificationService struct {
	mailer Mailer
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

// NewNotificationService returns a service that only logs when SMTP is not
// configured.
func NewNotificationService(cfg *config.Config) *NotificationService {
	var mailer Mailer
	if cfg.Email.Enabled() {
		mailer = gomail.NewDialer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUsername, cfg.Email.SMTPPassword)
	}
	return NewNotificationServiceWithMailer(mailer, cfg)
}

func NewNotificationServiceWithMailer(mailer Mailer, cfg *config.Config) *NotificationService {
	return &NotificationService{
		mailer: mailer,
		config: cfg,
	}
}

func (s *NotificationService) SendOrderPlaced(order *models.Order, user *models.User) error {
	return s.sendOrderEmail("order_placed", order, user)
}

func (s *NotificationService) SendOrderPaid(order *models.Order, user *models.User) error {
	return s.sendOrderEmail("order_paid", order, user)
}

func (s *NotificationService) SendOrderDelivered(order *models.Order, user *models.User) error {
	return s.sendOrderEmail("order_delivered", order, user)
}

func (s *NotificationService) sendOrderEmail(templateType string, order *models.Order, user *models.User) error {
	tmpl := s.getEmailTemplate(templateType)

	data := map[string]interface{}{
		"Name":     user.Name,
		"OrderID":  order.ID.String(),
		"Items":    order.OrderItems,
		"Total":    order.TotalPrice.StringFixed(2),
		"Address":  order.ShippingAddress,
		"OrderURL": fmt.Sprintf("%s/order/%s", s.config.Frontend.BaseURL, order.ID),
		"Store":    s.config.Email.FromName,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, tmpl.Subject, body)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.mailer == nil {
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Debug("Email not configured, skipping")
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.Email.FromEmail, s.config.Email.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const orderSummaryBlock = `
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Price.StringFixed 2}}</td></tr>
{{end}}</table>
<p>Total: {{.Total}}</p>
<p><a href="{{.OrderURL}}">View your order</a></p>`

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"order_placed": {
			Subject: "We received your order",
			Body: `<!DOCTYPE html>
<html>
<body>
<h2>Thanks for your order, {{.Name}}!</h2>
<p>Order {{.OrderID}} will ship to {{.Address.FullName}}, {{.Address.Address}}, {{.Address.City}} {{.Address.PostalCode}}, {{.Address.Country}}.</p>` + orderSummaryBlock + `
<p>{{.Store}}</p>
</body>
</html>`,
		},
		"order_paid": {
			Subject: "Payment received",
			Body: `<!DOCTYPE html>
<html>
<body>
<h2>Hi {{.Name}},</h2>
<p>We received the payment for order {{.OrderID}}.</p>` + orderSummaryBlock + `
<p>{{.Store}}</p>
</body>
</html>`,
		},
		"order_delivered": {
			Subject: "Your order has been delivered",
			Body: `<!DOCTYPE html>
<html>
<body>
<h2>Hi {{.Name}},</h2>
<p>Order {{.OrderID}} has been delivered. Enjoy!</p>
<p><a href="{{.OrderURL}}">Leave a review</a></p>
<p>{{.Store}}</p>
</body>
</html>`,
		},
	}

	return templates[templateType]
}
