package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/leathershop/internal/api/middleware"
	"github.com/example/leathershop/internal/auth"
	"github.com/example/leathershop/internal/events"
	"github.com/example/leathershop/internal/store"
)

// MessageStore persists conversations between a customer and the shop
// owner.
type MessageStore interface {
	CreateConversation(ctx context.Context, userID, subject string) (*store.Conversation, error)
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	ListConversationsByUser(ctx context.Context, userID string) ([]store.Conversation, error)
	ListAllConversations(ctx context.Context) ([]store.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]store.Message, error)
	CreateMessage(ctx context.Context, conversationID, senderID, body string) (*store.Message, error)
}

// MessageHandlers serves the customer-owner messaging thread. A customer
// sees only their own conversations; the owner sees all of them.
type MessageHandlers struct {
	messages  MessageStore
	hub       *events.Hub
	publisher events.Publisher // may be nil
}

func NewMessageHandlers(messages MessageStore, hub *events.Hub, publisher events.Publisher) *MessageHandlers {
	return &MessageHandlers{messages: messages, hub: hub, publisher: publisher}
}

// ListConversations returns the caller's conversations, or every
// conversation for the owner.
func (h *MessageHandlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var (
		conversations []store.Conversation
		err           error
	)
	if identity.Role == store.RoleOwner {
		conversations, err = h.messages.ListAllConversations(r.Context())
	} else {
		conversations, err = h.messages.ListConversationsByUser(r.Context(), identity.UserID)
	}
	if err != nil {
		respondJSONError(w, "Failed to load conversations", http.StatusInternalServerError)
		return
	}
	if conversations == nil {
		conversations = []store.Conversation{}
	}
	respondJSON(w, http.StatusOK, conversations)
}

// CreateConversation opens a thread, optionally with a first message.
func (h *MessageHandlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		respondJSONError(w, "Subject is required", http.StatusBadRequest)
		return
	}

	conversation, err := h.messages.CreateConversation(r.Context(), identity.UserID, req.Subject)
	if err != nil {
		respondJSONError(w, "Failed to create conversation", http.StatusInternalServerError)
		return
	}

	if body := strings.TrimSpace(req.Body); body != "" {
		if msg, err := h.messages.CreateMessage(r.Context(), conversation.ID, identity.UserID, body); err != nil {
			log.Printf("[Messages] First message for %s failed: %v", conversation.ID, err)
		} else {
			h.publishMessage(r.Context(), msg)
		}
	}

	respondJSON(w, http.StatusCreated, conversation)
}

// ListMessages returns the thread in chronological order.
func (h *MessageHandlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	conversationID := chi.URLParam(r, "id")

	if !h.authorize(r.Context(), w, conversationID, identity) {
		return
	}

	msgs, err := h.messages.ListMessages(r.Context(), conversationID)
	if err != nil {
		respondJSONError(w, "Failed to load messages", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	respondJSON(w, http.StatusOK, msgs)
}

// PostMessage appends to the thread and publishes the created event keyed
// by conversation, preserving per-conversation order for subscribers.
func (h *MessageHandlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	conversationID := chi.URLParam(r, "id")

	if !h.authorize(r.Context(), w, conversationID, identity) {
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		respondJSONError(w, "Message body is required", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.CreateMessage(r.Context(), conversationID, identity.UserID, req.Body)
	if err != nil {
		respondJSONError(w, "Failed to send message", http.StatusInternalServerError)
		return
	}
	h.publishMessage(r.Context(), msg)

	respondJSON(w, http.StatusCreated, msg)
}

// StreamEvents pushes new messages of one conversation over SSE until the
// client disconnects.
func (h *MessageHandlers) StreamEvents(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	conversationID := chi.URLParam(r, "id")

	if !h.authorize(r.Context(), w, conversationID, identity) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSONError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.hub.Subscribe(conversationID)
	defer cancel()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// authorize checks the caller participates in the conversation. The owner
// participates in all of them. Writes the error response on failure.
func (h *MessageHandlers) authorize(ctx context.Context, w http.ResponseWriter, conversationID string, identity auth.Identity) bool {
	conversation, err := h.messages.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondJSONError(w, "Conversation not found", http.StatusNotFound)
			return false
		}
		respondJSONError(w, "Failed to load conversation", http.StatusInternalServerError)
		return false
	}

	if identity.Role != store.RoleOwner && conversation.UserID != identity.UserID {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func (h *MessageHandlers) publishMessage(ctx context.Context, msg *store.Message) {
	if h.publisher == nil {
		return
	}
	payload := events.MessageCreated{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
		CreatedAt:      msg.CreatedAt,
	}
	if err := h.publisher.Publish(ctx, msg.ConversationID, events.TypeMessageCreated, payload); err != nil {
		log.Printf("[Messages] Failed to publish message %s: %v", msg.ID, err)
	}
}
