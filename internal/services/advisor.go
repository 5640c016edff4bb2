package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const nutritionSystemPrompt = `You are a nutrition advisor for families in Northern Nigeria. Provide practical, culturally appropriate advice using local foods like millet, sorghum, cowpeas, groundnuts, and moringa. Keep responses brief (2-3 sentences) and always recommend visiting health facilities for serious concerns.`

// Advisor answers nutrition questions. Implementations must always return a
// usable reply; a failing backend degrades to canned advice rather than
// failing the caller.
type Advisor interface {
	Ask(ctx context.Context, prompt string) string
}

// NewAdvisor selects the remote advisor when an API key is configured and
// the deterministic local one otherwise.
func NewAdvisor(apiKey, baseURL string) Advisor {
	if apiKey == "" {
		log.Printf("AI Service: fallback mode (no API key configured)")
		return LocalAdvisor{}
	}
	log.Printf("AI Service: OpenAI connected")
	return &OpenAIAdvisor{
		client:   &http.Client{Timeout: 15 * time.Second},
		apiKey:   apiKey,
		baseURL:  baseURL,
		model:    "gpt-3.5-turbo",
		fallback: LocalAdvisor{},
	}
}

// LocalAdvisor serves keyword-matched canned advice.
type LocalAdvisor struct{}

func (LocalAdvisor) Ask(_ context.Context, prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "pregn"):
		return "For pregnancy: aim for protein, iron-rich meals, and MMS as advised by health workers."
	case strings.Contains(lower, "malnutr"):
		return "Signs of malnutrition include weight loss, fatigue, and slow growth. Seek immediate medical attention."
	case strings.Contains(lower, "infant"), strings.Contains(lower, "baby"):
		return "For infants: exclusive breastfeeding for 6 months, then introduce nutrient-dense complementary foods."
	case strings.Contains(lower, "growth"):
		return "Healthy growth requires balanced nutrition with proteins, vitamins, and minerals. Monitor weight and height regularly."
	default:
		return "Include diverse local foods: eggs, beans, leafy greens, and orange-fleshed sweet potato. Visit clinic if unsure."
	}
}

// OpenAIAdvisor calls the chat completions API, falling back to LocalAdvisor
// on any failure.
type OpenAIAdvisor struct {
	client   *http.Client
	apiKey   string
	baseURL  string
	model    string
	fallback Advisor
}

func (a *OpenAIAdvisor) Ask(ctx context.Context, prompt string) string {
	reply, err := a.complete(ctx, prompt)
	if err != nil {
		log.Printf("OpenAI API error: %v", err)
		return a.fallback.Ask(ctx, prompt)
	}
	return reply
}

func (a *OpenAIAdvisor) complete(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": nutritionSystemPrompt},
			{"role": "user", "content": prompt},
		},
		"max_tokens":  150,
		"temperature": 0.7,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/v1/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
