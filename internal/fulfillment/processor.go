// Package fulfillment turns verified payment-completion events into
// persisted orders.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/leathershop/internal/events"
	"github.com/example/leathershop/internal/payment"
	"github.com/example/leathershop/internal/store"
)

// ErrMissingCorrelation marks an event without the required correlation
// keys (user identifier or total amount). Such an event is dropped with a
// log entry and zero writes; retrying it cannot succeed.
var ErrMissingCorrelation = errors.New("completed session missing user id or total amount")

// OrderWriter is the slice of the order store the processor needs.
type OrderWriter interface {
	CreateOrderWithItems(ctx context.Context, o store.Order, items []store.OrderItem) (orderID string, created bool, err error)
}

// Processor persists one order per completed payment session.
type Processor struct {
	orders    OrderWriter
	payments  payment.Gateway
	publisher events.Publisher // may be nil
}

func NewProcessor(orders OrderWriter, payments payment.Gateway, publisher events.Publisher) *Processor {
	return &Processor{orders: orders, payments: payments, publisher: publisher}
}

// Process handles a verified event. Unknown event types are ignored. For a
// completed checkout session it writes the Order and its OrderItems in one
// transaction; redelivery of an already-recorded session writes nothing.
// Returned errors other than ErrMissingCorrelation are transient and safe
// for the provider to retry.
func (p *Processor) Process(ctx context.Context, ev *payment.Event) error {
	if ev.Type != payment.EventCheckoutCompleted || ev.Session == nil {
		log.Printf("[Webhook] Ignoring event type %s", ev.Type)
		return nil
	}
	cs := ev.Session

	if cs.ClientReferenceID == "" || cs.AmountTotal == 0 {
		log.Printf("[Webhook] Integrity failure for session %s: user=%q amount=%d",
			cs.ID, cs.ClientReferenceID, cs.AmountTotal)
		return ErrMissingCorrelation
	}

	// The provider's record of the session, not the client-submitted
	// cart, is the source of truth for what was charged.
	charged, err := p.payments.ListLineItems(ctx, cs.ID)
	if err != nil {
		return fmt.Errorf("list charged items: %w", err)
	}

	order := store.Order{
		UserID:             cs.ClientReferenceID,
		StripeSessionID:    cs.ID,
		AmountTotal:        float64(cs.AmountTotal) / 100,
		Status:             store.StatusPaid,
		CustomerIPAddress:  cs.Metadata["customer_ip"],
		ShippingStreet:     cs.Metadata["shipping_street"],
		ShippingCity:       cs.Metadata["shipping_city"],
		ShippingPostalCode: cs.Metadata["shipping_postal_code"],
		ShippingCountry:    cs.Metadata["shipping_country"],
		IsGift:             cs.Metadata["is_gift"] == "true",
	}
	items := make([]store.OrderItem, 0, len(charged))
	for _, li := range charged {
		items = append(items, store.OrderItem{
			ProductName: li.Description,
			Quantity:    int(li.Quantity),
			Price:       float64(li.UnitAmount) / 100,
		})
	}

	orderID, created, err := p.orders.CreateOrderWithItems(ctx, order, items)
	if err != nil {
		return fmt.Errorf("persist order for session %s: %w", cs.ID, err)
	}
	if !created {
		log.Printf("[Webhook] Session %s already recorded, skipping", cs.ID)
		return nil
	}
	log.Printf("[Webhook] Order %s recorded for session %s (user %s, %.2f)", orderID, cs.ID, order.UserID, order.AmountTotal)

	if p.publisher != nil {
		lines := make([]events.OrderLine, len(items))
		for i, it := range items {
			lines[i] = events.OrderLine{Name: it.ProductName, Quantity: it.Quantity, Price: it.Price}
		}
		payload := events.OrderCompleted{
			OrderID: orderID,
			UserID:  order.UserID,
			Email:   cs.CustomerEmail,
			Total:   order.AmountTotal,
			Items:   lines,
		}
		if err := p.publisher.Publish(ctx, order.UserID, events.TypeOrderCompleted, payload); err != nil {
			// Email notification is best-effort; the order is already safe.
			log.Printf("[Webhook] Failed to publish OrderCompleted for %s: %v", cs.ID, err)
		}
	}
	return nil
}
