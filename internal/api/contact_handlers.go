package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/leathershop/internal/email"
)

// ContactHandlers forwards the public contact form to the shop owner.
type ContactHandlers struct {
	emails *email.Service
}

func NewContactHandlers(emails *email.Service) *ContactHandlers {
	return &ContactHandlers{emails: emails}
}

// SendEmail validates the form and forwards it. All three fields are
// required; the visitor's address becomes the reply-to shown in the body.
func (h *ContactHandlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		respondJSONError(w, "Name, email and message are required", http.StatusBadRequest)
		return
	}

	if err := h.emails.SendContactMessage(req.Name, req.Email, req.Message); err != nil {
		respondJSONError(w, "Message could not be sent", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Message sent"})
}
