package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cardAdvisor/business/oracle"
)

const defaultSystemPrompt = "You rate how well a credit card rewards a purchase at a given store. " +
	`Reply with JSON only: {"score": <integer 0-100>, "rationale": "<one short sentence>"}.`

type OpenAIConfig struct {
	Endpoint     string
	Model        string
	APIKey       string
	SystemPrompt string
}

// OpenAIRepository talks to an OpenAI-compatible chat completions endpoint.
// Timeouts and retries belong to oracle.Client; this type does one round-trip.
type OpenAIRepository struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

var _ oracle.Transport = (*OpenAIRepository)(nil)

func NewOpenAIRepository(cfg OpenAIConfig, httpClient *http.Client) *OpenAIRepository {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenAIRepository{
		cfg:        cfg,
		httpClient: httpClient,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (r *OpenAIRepository) Complete(ctx context.Context, sc oracle.ScoreContext) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: r.systemPrompt()},
			{Role: "user", Content: buildPrompt(sc)},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", &oracle.Error{Kind: oracle.KindParsing, Err: fmt.Errorf("marshal chat request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &oracle.Error{Kind: oracle.KindConfiguration, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return "", fmt.Errorf("chat completion error %s: %s", res.Status, strings.TrimSpace(string(payload)))
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &oracle.Error{Kind: oracle.KindParsing, Err: fmt.Errorf("decode chat response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &oracle.Error{Kind: oracle.KindParsing, Err: oracle.ErrEmptyResponse}
	}

	return parsed.Choices[0].Message.Content, nil
}

func (r *OpenAIRepository) systemPrompt() string {
	if p := strings.TrimSpace(r.cfg.SystemPrompt); p != "" {
		return p
	}
	return defaultSystemPrompt
}

func buildPrompt(sc oracle.ScoreContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Store: %s\n", sc.StoreName)
	if sc.StoreCategory != "" {
		fmt.Fprintf(&b, "Store category: %s\n", sc.StoreCategory)
	}
	if len(sc.Keywords) > 0 {
		fmt.Fprintf(&b, "Store keywords: %s\n", strings.Join(sc.Keywords, ", "))
	}
	fmt.Fprintf(&b, "Card: %s (%s)\n", sc.CardName, sc.Issuer)
	if len(sc.CardCategories) > 0 {
		fmt.Fprintf(&b, "Card bonus categories: %s\n", strings.Join(sc.CardCategories, ", "))
	}
	return b.String()
}
