package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/leathershop/internal/api/middleware"
	"github.com/example/leathershop/internal/auth"
	"github.com/example/leathershop/internal/events"
	"github.com/example/leathershop/internal/store"
)

type fakeMessageStore struct {
	conversations map[string]*store.Conversation
	messages      map[string][]store.Message
	nextID        int
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{
		conversations: make(map[string]*store.Conversation),
		messages:      make(map[string][]store.Message),
	}
}

func (f *fakeMessageStore) CreateConversation(ctx context.Context, userID, subject string) (*store.Conversation, error) {
	f.nextID++
	c := &store.Conversation{ID: "conv-" + subject, UserID: userID, Subject: subject, CreatedAt: time.Now()}
	f.conversations[c.ID] = c
	return c, nil
}

func (f *fakeMessageStore) GetConversation(ctx context.Context, id string) (*store.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeMessageStore) ListConversationsByUser(ctx context.Context, userID string) ([]store.Conversation, error) {
	var out []store.Conversation
	for _, c := range f.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) ListAllConversations(ctx context.Context) ([]store.Conversation, error) {
	var out []store.Conversation
	for _, c := range f.conversations {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeMessageStore) ListMessages(ctx context.Context, conversationID string) ([]store.Message, error) {
	return f.messages[conversationID], nil
}

func (f *fakeMessageStore) CreateMessage(ctx context.Context, conversationID, senderID, body string) (*store.Message, error) {
	f.nextID++
	m := store.Message{
		ID:             "msg-" + body,
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      time.Now(),
	}
	f.messages[conversationID] = append(f.messages[conversationID], m)
	return &m, nil
}

type recordingPublisher struct {
	keys  []string
	types []string
}

func (r *recordingPublisher) Publish(ctx context.Context, key, eventType string, payload any) error {
	r.keys = append(r.keys, key)
	r.types = append(r.types, eventType)
	return nil
}

func messageRouter(h *MessageHandlers) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/me/conversations", h.ListConversations)
	r.Post("/api/me/conversations", h.CreateConversation)
	r.Get("/api/conversations/{id}/messages", h.ListMessages)
	r.Post("/api/conversations/{id}/messages", h.PostMessage)
	return r
}

func asIdentity(req *http.Request, identity auth.Identity) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.IdentityContextKey, identity)
	return req.WithContext(ctx)
}

func TestPostMessage_PublishesKeyedByConversation(t *testing.T) {
	msgs := newFakeMessageStore()
	conversation, _ := msgs.CreateConversation(context.Background(), "user-1", "delai")
	publisher := &recordingPublisher{}
	h := NewMessageHandlers(msgs, events.NewHub(), publisher)
	r := messageRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/"+conversation.ID+"/messages",
		strings.NewReader(`{"body":"Bonjour, où en est ma commande ?"}`))
	req = asIdentity(req, auth.Identity{UserID: "user-1", Role: store.RoleCustomer})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, publisher.keys, 1)
	assert.Equal(t, conversation.ID, publisher.keys[0])
	assert.Equal(t, events.TypeMessageCreated, publisher.types[0])
}

func TestPostMessage_StrangerForbidden(t *testing.T) {
	msgs := newFakeMessageStore()
	conversation, _ := msgs.CreateConversation(context.Background(), "user-1", "delai")
	h := NewMessageHandlers(msgs, events.NewHub(), nil)
	r := messageRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/"+conversation.ID+"/messages",
		strings.NewReader(`{"body":"intrusion"}`))
	req = asIdentity(req, auth.Identity{UserID: "user-2", Role: store.RoleCustomer})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, msgs.messages[conversation.ID])
}

func TestPostMessage_OwnerParticipatesEverywhere(t *testing.T) {
	msgs := newFakeMessageStore()
	conversation, _ := msgs.CreateConversation(context.Background(), "user-1", "delai")
	h := NewMessageHandlers(msgs, events.NewHub(), nil)
	r := messageRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/"+conversation.ID+"/messages",
		strings.NewReader(`{"body":"Votre commande part demain."}`))
	req = asIdentity(req, auth.Identity{UserID: "owner-1", Role: store.RoleOwner})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, msgs.messages[conversation.ID], 1)
}

func TestPostMessage_EmptyBodyRejected(t *testing.T) {
	msgs := newFakeMessageStore()
	conversation, _ := msgs.CreateConversation(context.Background(), "user-1", "delai")
	h := NewMessageHandlers(msgs, events.NewHub(), nil)
	r := messageRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/"+conversation.ID+"/messages",
		strings.NewReader(`{"body":"   "}`))
	req = asIdentity(req, auth.Identity{UserID: "user-1", Role: store.RoleCustomer})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMessages_UnknownConversation(t *testing.T) {
	h := NewMessageHandlers(newFakeMessageStore(), events.NewHub(), nil)
	r := messageRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/missing/messages", nil)
	req = asIdentity(req, auth.Identity{UserID: "user-1", Role: store.RoleCustomer})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateConversation_WithFirstMessage(t *testing.T) {
	msgs := newFakeMessageStore()
	publisher := &recordingPublisher{}
	h := NewMessageHandlers(msgs, events.NewHub(), publisher)
	r := messageRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/me/conversations",
		strings.NewReader(`{"subject":"personnalisation","body":"Gravure possible ?"}`))
	req = asIdentity(req, auth.Identity{UserID: "user-1", Role: store.RoleCustomer})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, msgs.messages["conv-personnalisation"], 1)
	assert.Equal(t, "Gravure possible ?", msgs.messages["conv-personnalisation"][0].Body)
	assert.Len(t, publisher.keys, 1)
}

func TestListConversations_RoleScoping(t *testing.T) {
	msgs := newFakeMessageStore()
	_, _ = msgs.CreateConversation(context.Background(), "user-1", "a")
	_, _ = msgs.CreateConversation(context.Background(), "user-2", "b")
	h := NewMessageHandlers(msgs, events.NewHub(), nil)
	r := messageRouter(h)

	t.Run("customer sees only their own", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me/conversations", nil)
		req = asIdentity(req, auth.Identity{UserID: "user-1", Role: store.RoleCustomer})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"conv-a"`)
		assert.NotContains(t, w.Body.String(), `"conv-b"`)
	})

	t.Run("owner sees all", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me/conversations", nil)
		req = asIdentity(req, auth.Identity{UserID: "owner-1", Role: store.RoleOwner})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"conv-a"`)
		assert.Contains(t, w.Body.String(), `"conv-b"`)
	})
}
