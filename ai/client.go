package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"devforge/backend/pkg/resilience"
)

// Completer is the contract the chat layer depends on: given a prompt,
// return the assistant's structured reply or fail.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*Result, error)
}

// Config configures the completion-service client
type Config struct {
	ServiceURL string
	APIKey     string
	Timeout    time.Duration
}

// Client calls the Gemini generateContent REST endpoint
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
}

// NewClient creates a completion-service client. The circuit breaker is
// optional; when present it short-circuits calls while the upstream is
// failing.
func NewClient(config Config, breaker *resilience.CircuitBreaker) (*Client, error) {
	if config.ServiceURL == "" {
		return nil, errors.New("completion service URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    breaker,
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the prompt to the completion service and parses the reply
// into a tagged Result at this boundary.
func (c *Client) Complete(ctx context.Context, prompt string) (*Result, error) {
	var result *Result

	call := func() error {
		raw, err := c.generate(ctx, prompt)
		if err != nil {
			return err
		}
		result = ParseResult(raw)
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := c.config.ServiceURL
	if c.config.APIKey != "" {
		url += "?key=" + c.config.APIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion service returned status %d: %s", resp.StatusCode, string(payload))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("completion service error: %s", parsed.Error.Message)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("completion service returned no candidates")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
