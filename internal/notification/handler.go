// Package notification consumes order events and sends the customer
// confirmation email.
package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/leathershop/internal/email"
	"github.com/example/leathershop/internal/events"
)

// Handler processes events for sending notifications
type Handler struct {
	emailService *email.Service
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc *email.Service) *Handler {
	return &Handler{emailService: emailSvc}
}

// HandleEvent processes an event from Kafka. The OrderCompleted payload
// carries the recipient and the charged lines, so no store lookup is
// needed here.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var envelope events.Envelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	if envelope.Type != events.TypeOrderCompleted {
		return nil
	}
	return h.handleOrderCompleted(envelope)
}

func (h *Handler) handleOrderCompleted(envelope events.Envelope) error {
	var e events.OrderCompleted
	if err := json.Unmarshal(envelope.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderCompleted event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderCompleted event for order %s, user %s", e.OrderID, e.UserID)

	if e.Email == "" {
		// Nothing to send to; dropping beats redelivering forever.
		log.Printf("[Notifier] Order %s has no customer email, skipping", e.OrderID)
		return nil
	}

	emailItems := make([]email.OrderLine, len(e.Items))
	for i, item := range e.Items {
		emailItems[i] = email.OrderLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	if err := h.emailService.SendOrderConfirmation(e.Email, e.OrderID, e.Total, emailItems); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", e.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", e.Email, e.OrderID)
	return nil
}
