package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/example/leathershop/internal/fulfillment"
	"github.com/example/leathershop/internal/metrics"
	"github.com/example/leathershop/internal/payment"
)

// maxWebhookBody caps the raw payload read for signature verification.
const maxWebhookBody = 1 << 20 // 1MB

// EventProcessor consumes a verified payment event.
type EventProcessor interface {
	Process(ctx context.Context, ev *payment.Event) error
}

// WebhookHandlers receives payment-provider callbacks. The body must be
// read raw: the signature covers the exact bytes sent.
type WebhookHandlers struct {
	verifier  payment.Verifier
	processor EventProcessor
	metrics   *metrics.ServerMetrics // may be nil
}

func NewWebhookHandlers(verifier payment.Verifier, processor EventProcessor, m *metrics.ServerMetrics) *WebhookHandlers {
	return &WebhookHandlers{verifier: verifier, processor: processor, metrics: m}
}

// HandleStripe processes one webhook delivery. A bad signature gets 400.
// An event that can never succeed (missing correlation keys) is dropped
// with 200 so the provider stops retrying; transient failures get 500 so
// it retries later.
func (h *WebhookHandlers) HandleStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	event, err := h.verifier.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("[Webhook] Signature verification failed: %v", err)
		h.count(metrics.WebhookOutcomeRejected)
		respondJSONError(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	if err := h.processor.Process(r.Context(), event); err != nil {
		if errors.Is(err, fulfillment.ErrMissingCorrelation) {
			log.Printf("[Webhook] Dropping event %s: %v", event.ID, err)
			h.count(metrics.WebhookOutcomeRejected)
			respondJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
		log.Printf("[Webhook] Event %s failed, provider will retry: %v", event.ID, err)
		h.count(metrics.WebhookOutcomeRetried)
		respondJSONError(w, "Event processing failed", http.StatusInternalServerError)
		return
	}

	h.count(metrics.WebhookOutcomeRecorded)
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandlers) count(outcome string) {
	if h.metrics != nil {
		h.metrics.WebhookEvents.WithLabelValues(outcome).Inc()
	}
}
