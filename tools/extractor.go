package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ExtractedItem é um candidato a review vindo do modelo. Vive só durante a
// chamada do webhook: quem persiste é o pipeline, depois do match.
type ExtractedItem struct {
	VenueName  string  `json:"venue_name"`
	City       string  `json:"city"`
	Rating     float64 `json:"rating"` // 1-5; 0 = não informado
	ReviewText string  `json:"review_text"`
}

// Erros de parse distinguem "saída ilegível" (mandamos dica de formato pro
// usuário) de "JSON válido com shape errado" (silêncio, só log).
var ErrUnparsableExtraction = errors.New("extractor: model output is not valid JSON")
var ErrNotAnArray = errors.New("extractor: model output is not a JSON array")

const extractionMaxTokens = 1024

const extractionSystemPrompt = `You are an extraction engine for masjid (mosque) reviews written in Indonesian or English. The user message may contain zero or more reviews of masjids.

Respond with ONLY a JSON array, no prose and no markdown. Each element must be an object with exactly these keys:
- "venue_name": string, the masjid name as written by the user
- "city": string or null, the city if mentioned
- "rating": integer 1-5 or null, if the user gave a score (e.g. "Rating 4/5" means 4)
- "review_text": string, the review content itself

If the message contains no masjid review at all, respond with [].`

// ExtractReviews manda a mensagem limpa pro endpoint de chat completions
// (OpenAI ou compatível via OPENAI_BASE_URL) e devolve os itens extraídos
// mais o texto cru do modelo (pro wa_log quando o parse falha).
func ExtractReviews(ctx context.Context, message string) ([]ExtractedItem, string, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, "", fmt.Errorf("OPENAI_API_KEY not set")
	}
	baseURL := strings.TrimRight(getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/")
	model := getenv("OPENAI_MODEL", "gpt-4o-mini")

	reqBody := map[string]any{
		"model":      model,
		"max_tokens": extractionMaxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": extractionSystemPrompt},
			{"role": "user", "content": message},
		},
	}

	b, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		baseURL+"/chat/completions",
		bytes.NewReader(b),
	)
	if err != nil {
		return nil, "", err
	}

	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("extraction error %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, "", err
	}
	if len(parsed.Choices) == 0 {
		return nil, "", fmt.Errorf("empty response from model (no choices)")
	}

	raw := parsed.Choices[0].Message.Content
	items, err := ParseExtraction(raw)
	return items, raw, err
}

// ParseExtraction tolera ruído de formatação (cercas de código) antes de
// exigir um array JSON.
func ParseExtraction(raw string) ([]ExtractedItem, error) {
	clean := StripCodeFences(raw)
	if clean == "" || !json.Valid([]byte(clean)) {
		return nil, ErrUnparsableExtraction
	}

	var probe any
	if err := json.Unmarshal([]byte(clean), &probe); err != nil {
		return nil, ErrUnparsableExtraction
	}
	if _, ok := probe.([]any); !ok {
		return nil, ErrNotAnArray
	}

	var items []ExtractedItem
	if err := json.Unmarshal([]byte(clean), &items); err != nil {
		// array válido mas com elementos de tipo inesperado
		return nil, ErrUnparsableExtraction
	}
	return items, nil
}

// StripCodeFences remove marcadores ``` / ```json que alguns modelos
// insistem em colocar em volta do array.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
