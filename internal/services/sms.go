package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSService sends outbound text messages through the Twilio REST API.
type SMSService struct {
	client     *http.Client
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
}

func NewSMSService(baseURL, accountSID, authToken, fromNumber string) *SMSService {
	return &SMSService{
		client:     &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
	}
}

// Send delivers one message. Fire-and-forget channel: callers log failures
// but never fail their own flow on one.
func (s *SMSService) Send(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.fromNumber)
	form.Set("Body", body)

	endpoint := s.baseURL + "/2010-04-01/Accounts/" + s.accountSID + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %v", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("SMS send to %s failed: %v", to, err)
		return fmt.Errorf("sms send failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("SMS send to %s failed with status %d: %s", to, resp.StatusCode, string(respBody))
		return fmt.Errorf("sms send failed with status %d", resp.StatusCode)
	}
	log.Printf("SMS sent to %s", to)
	return nil
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// TwiMLReply renders the XML reply body for an inbound SMS webhook.
func TwiMLReply(message string) string {
	out, err := xml.Marshal(twimlResponse{Message: message})
	if err != nil {
		return "<Response></Response>"
	}
	return xml.Header + string(out)
}
