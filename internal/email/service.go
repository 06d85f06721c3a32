package email

import (
	"errors"
	"fmt"
	"log"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

var ErrNotConfigured = errors.New("email service is not configured")

// Sender is the SendGrid send call; satisfied by *sendgrid.Client and by
// the test fake.
type Sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// Service sends transactional email. Every send is fire-and-forget from
// the caller's point of view: failures are logged and never block the
// primary flow.
type Service struct {
	sender     Sender
	fromName   string
	fromEmail  string
	adminEmail string
}

// NewService builds a service backed by SendGrid. adminEmail receives the
// shop-owner notifications (contact form, login notices).
func NewService(apiKey, fromName, fromEmail, adminEmail string) *Service {
	var sender Sender
	if apiKey != "" {
		sender = sendgrid.NewSendClient(apiKey)
	}
	return &Service{
		sender:     sender,
		fromName:   fromName,
		fromEmail:  fromEmail,
		adminEmail: adminEmail,
	}
}

// NewServiceWithSender is used by tests.
func NewServiceWithSender(sender Sender, fromName, fromEmail, adminEmail string) *Service {
	return &Service{sender: sender, fromName: fromName, fromEmail: fromEmail, adminEmail: adminEmail}
}

// SendOrderConfirmation mails the customer after the webhook records the
// order.
func (s *Service) SendOrderConfirmation(to, orderID string, total float64, items []OrderLine) error {
	shortID := orderID
	if len(orderID) > 8 {
		shortID = orderID[:8]
	}
	subject := fmt.Sprintf("Confirmation de votre commande n°%s", shortID)
	return s.send(to, subject, BuildOrderConfirmationBody(orderID, total, items))
}

// SendLoginNotice tells the shop owner about a successful login.
func (s *Service) SendLoginNotice(userEmail, ip string) error {
	return s.send(s.adminEmail, "Nouvelle connexion sur la boutique", BuildLoginNoticeBody(userEmail, ip))
}

// SendContactMessage forwards a contact-form submission to the shop owner.
func (s *Service) SendContactMessage(name, replyTo, message string) error {
	subject := fmt.Sprintf("Nouveau message de contact de %s", name)
	return s.send(s.adminEmail, subject, BuildContactBody(name, replyTo, message))
}

// SendPasswordReset mails the recovery link to the account holder.
func (s *Service) SendPasswordReset(to, resetURL string) error {
	return s.send(to, "Réinitialisation de votre mot de passe", BuildPasswordResetBody(resetURL))
}

func (s *Service) send(to, subject, htmlBody string) error {
	if s.sender == nil {
		return ErrNotConfigured
	}
	if to == "" {
		return errors.New("no recipient")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, "", htmlBody)

	response, err := s.sender.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", response.StatusCode, response.Body)
	}

	log.Printf("[Email] Sent %q to %s (status %d)", subject, to, response.StatusCode)
	return nil
}
