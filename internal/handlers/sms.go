package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/services"
)

type SMSHandler struct {
	advisor services.Advisor
	sender  *services.SMSService
}

func NewSMSHandler(advisor services.Advisor, sender *services.SMSService) *SMSHandler {
	return &SMSHandler{advisor: advisor, sender: sender}
}

// SendSMS delivers a reminder or notification text.
func (h *SMSHandler) SendSMS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To   string `json:"to"`
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "POST", "/sms/send")
		return
	}
	if req.To == "" || req.Body == "" {
		respondWithError(w, http.StatusBadRequest, "to and body are required", "POST", "/sms/send")
		return
	}

	if err := h.sender.Send(r.Context(), req.To, req.Body); err != nil {
		respondWithError(w, http.StatusInternalServerError, "sms send failed", "POST", "/sms/send")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"sent": true}, "POST", "/sms/send")
}

// InboundSMS answers an incoming text message with nutrition advice as a
// TwiML reply. The carrier sends urlencoded form fields.
func (h *SMSHandler) InboundSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid form body", "POST", "/sms/webhook")
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" || body == "" {
		// Nothing to answer; acknowledge so the carrier does not retry.
		httpRequestsTotal.WithLabelValues("POST", "/sms/webhook", "200").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}
	log.Printf("Incoming SMS from %s: %s", from, body)

	reply := h.advisor.Ask(r.Context(), body)

	httpRequestsTotal.WithLabelValues("POST", "/sms/webhook", "200").Inc()
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(services.TwiMLReply(reply)))
}
