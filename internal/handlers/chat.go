package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/services"
)

type ChatHandler struct {
	advisor services.Advisor
	history *services.ChatService
}

func NewChatHandler(advisor services.Advisor, history *services.ChatService) *ChatHandler {
	return &ChatHandler{advisor: advisor, history: history}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "POST", "/chat")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondWithError(w, http.StatusBadRequest, "Message is required", "POST", "/chat")
		return
	}

	response := h.advisor.Ask(r.Context(), req.Message)

	if h.history != nil {
		if _, err := h.history.Record(r.Context(), req.Message, response); err != nil {
			// History is best effort; the reply still goes out.
			log.Printf("Failed to record chat history: %v", err)
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"response": response}, "POST", "/chat")
}
