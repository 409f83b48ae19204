package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrNotConfigured is returned when no API key was supplied.
	ErrNotConfigured = errors.New("gemini: API key not configured")
	// ErrQuotaExceeded is returned when the API rejects the call for quota.
	ErrQuotaExceeded = errors.New("gemini: quota exceeded")
	// ErrEmptyResponse is returned when no candidate text came back.
	ErrEmptyResponse = errors.New("gemini: empty response")
)

// Config holds the API settings.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client calls the generateContent REST endpoint.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))
}

// Generate sends prompt as a single user turn and returns the first
// candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}

	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return "", ctx.Err()
	}

	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxTokens,
		},
	}

	agent := fiber.Post(c.endpoint()).JSON(req).Timeout(timeout)
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("gemini request failed: %w", errs[0])
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("gemini returned invalid JSON (status %d): %w", status, err)
	}

	if status == fiber.StatusTooManyRequests || (resp.Error != nil && resp.Error.Status == "RESOURCE_EXHAUSTED") {
		return "", ErrQuotaExceeded
	}
	if status >= 400 || resp.Error != nil {
		msg := ""
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return "", fmt.Errorf("gemini returned status %d: %s", status, msg)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
