package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openai.com"
	DefaultModel   = "gpt-4.1-mini"

	fallbackReasoning = "The judge did not return any reasoning. Try evaluating again later."
)

const systemPrompt = "You are an impartial debate judge. Decide which side (SIDE_A or SIDE_B) argued better " +
	"in the debate below. Use these criteria: 1) logic and justification, 2) responses to the opposing " +
	"arguments, 3) use of information and facts, 4) coherence and structure. Score both sides from 0 to 100 " +
	"and write a short, well-structured justification."

const answerFormat = "\n\nReturn your answer as a strict JSON object with no other text, in the form:\n" +
	"{\n" +
	"  \"winner\": \"SIDE_A\" | \"SIDE_B\" | \"TIE\",\n" +
	"  \"scoreA\": number, // 0-100\n" +
	"  \"scoreB\": number, // 0-100\n" +
	"  \"reasoning\": string\n" +
	"}"

// OpenAI is a Judge backed by an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	APIKey  string
	BaseURL string
	Model   string
	http    *http.Client
}

// NewOpenAI builds a client. Empty baseURL and model fall back to the public API defaults.
func NewOpenAI(apiKey, baseURL, model string, timeout time.Duration) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *OpenAI) Evaluate(ctx context.Context, transcript string) (Verdict, error) {
	if c.APIKey == "" {
		return Verdict{}, errors.New("missing judge API key")
	}
	payload := map[string]any{
		"model":           c.Model,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": transcript + answerFormat},
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Verdict{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(b))
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("judge request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return Verdict{}, fmt.Errorf("judge status %d", resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Verdict{}, fmt.Errorf("decode judge response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return Verdict{}, fmt.Errorf("%w: empty response", ErrMalformedVerdict)
	}
	return ParseVerdict(out.Choices[0].Message.Content)
}

// ParseVerdict decodes the judge's JSON answer. Unknown winners become
// undetermined, unparsable scores become NaN, and empty reasoning gets a
// fallback text. Content that is not a JSON object is an error.
func ParseVerdict(content string) (Verdict, error) {
	var raw struct {
		Winner    string `json:"winner"`
		ScoreA    any    `json:"scoreA"`
		ScoreB    any    `json:"scoreB"`
		Reasoning any    `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	reasoning, _ := raw.Reasoning.(string)
	if strings.TrimSpace(reasoning) == "" {
		reasoning = fallbackReasoning
	}
	return Verdict{
		Winner:    ParseWinner(raw.Winner),
		ScoreA:    toScore(raw.ScoreA),
		ScoreB:    toScore(raw.ScoreB),
		Reasoning: reasoning,
	}, nil
}

func toScore(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}
