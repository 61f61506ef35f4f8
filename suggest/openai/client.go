// Package openai generates edit suggestions with the OpenAI chat completions
// API. The model is asked for JSON matching a fixed schema; responses are
// validated before they become proposals.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/redlinehq/redline/schema"
	"github.com/redlinehq/redline/suggest"
)

const (
	defaultBaseURL      = "https://api.openai.com/v1"
	chatEndpoint        = "/chat/completions"
	defaultModel        = "gpt-4.1"
	defaultHTTPClientTO = 120 * time.Second
	defaultTemperature  = 0.7
	defaultMaxTokens    = 2000
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents the request structure for the chat completions API.
type Request struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	Temperature    float64   `json:"temperature"`
	MaxTokens      int       `json:"max_tokens,omitempty"`
	ResponseFormat *Format   `json:"response_format,omitempty"`
}

// Format constrains the response shape.
type Format struct {
	Type string `json:"type"`
}

// Response represents the chat completions API response.
type Response struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

func NewClient(apiKey, model string) *Client {
	c := &Client{
		BaseURL:     defaultBaseURL,
		APIKey:      apiKey,
		Model:       model,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		HTTPClient:  &http.Client{Timeout: defaultHTTPClientTO},
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	return c
}

type optionsPayload struct {
	Options []struct {
		Label    string `json:"label"`
		Severity string `json:"severity"`
		Before   string `json:"before"`
		After    string `json:"after"`
	} `json:"options"`
}

// Suggest implements suggest.Suggester.
func (c *Client) Suggest(ctx context.Context, req suggest.Request) ([]suggest.Proposal, error) {
	numOptions := req.NumOptions
	if numOptions <= 0 {
		numOptions = 3
	}
	payload := Request{
		Model: c.Model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt(numOptions)},
			{Role: "user", Content: userPrompt(req)},
		},
		Temperature:    c.Temperature,
		MaxTokens:      c.MaxTokens,
		ResponseFormat: &Format{Type: "json_object"},
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+chatEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct{ Message, Type string } `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, fmt.Errorf("API error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return nil, fmt.Errorf("API error: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var chatResp Response
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", suggest.ErrNoOptions)
	}
	return parseProposals(chatResp.Choices[0].Message.Content, numOptions, req.TargetText)
}

// parseProposals validates the model's JSON: severities outside the enum are
// cleared so Labels assigns the default cycle, empty rewrites are dropped.
func parseProposals(content string, numOptions int, targetText string) ([]suggest.Proposal, error) {
	var parsed optionsPayload
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	proposals := make([]suggest.Proposal, 0, len(parsed.Options))
	for _, o := range parsed.Options {
		if len(proposals) == numOptions {
			break
		}
		severity := schema.Severity(o.Severity)
		switch severity {
		case schema.SeverityLight, schema.SeverityMedium, schema.SeverityBold:
		default:
			severity = ""
		}
		proposals = append(proposals, suggest.Proposal{
			Label:    o.Label,
			Severity: severity,
			Before:   o.Before,
			After:    o.After,
		})
	}
	proposals = suggest.Labels(proposals, targetText)
	if len(proposals) == 0 {
		return nil, suggest.ErrNoOptions
	}
	return proposals, nil
}
