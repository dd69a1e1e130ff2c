// Package ollama is a minimal client for a local Ollama text-generation server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Defaults for a local Ollama install.
const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "mistral"

	DefaultProbeTimeout    = 5 * time.Second
	DefaultGenerateTimeout = 30 * time.Second
)

var (
	// ErrUnexpectedStatus is returned for any non-2xx response.
	ErrUnexpectedStatus = errors.New("ollama returned unexpected status")

	// ErrMalformedResponse is returned when a response body cannot be decoded.
	ErrMalformedResponse = errors.New("ollama returned malformed response")
)

// Client talks to the Ollama HTTP API.
type Client struct {
	baseURL         string
	model           string
	httpClient      *http.Client
	probeTimeout    time.Duration
	generateTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeouts overrides the status probe and generation timeouts.
func WithTimeouts(probe, generate time.Duration) Option {
	return func(c *Client) {
		if probe > 0 {
			c.probeTimeout = probe
		}
		if generate > 0 {
			c.generateTimeout = generate
		}
	}
}

// New creates a new client. Empty baseURL or model fall back to the defaults.
func New(baseURL, model string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		model:           model,
		httpClient:      http.DefaultClient,
		probeTimeout:    DefaultProbeTimeout,
		generateTimeout: DefaultGenerateTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TagsResponse is the body of GET /api/tags.
type TagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// GenerateOptions are the sampling parameters sent with a generation request.
type GenerateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options GenerateOptions `json:"options"`
}

// GenerateResponse is the non-streaming reply of POST /api/generate.
type GenerateResponse struct {
	Response string `json:"response"`
}

// Running reports whether the server answers the tags endpoint with 200.
func (c *Client) Running(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// Models lists the full names (including any :tag suffix) of installed models.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var tags TagsResponse
	if err := c.do(req, &tags); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HasModel reports whether name is installed. An installed model matches on its
// full name or, for an untagged name, on the name with its ":tag" removed.
func (c *Client) HasModel(ctx context.Context, name string) bool {
	if name == "" {
		name = c.model
	}
	models, err := c.Models(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		if m == name || baseName(m) == name {
			return true
		}
	}
	return false
}

// Generate runs a single non-streaming completion with the configured model.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	body, err := json.Marshal(GenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: opts,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out GenerateResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// Status summarizes server and model availability.
type Status struct {
	Running        bool
	ModelAvailable bool
	Models         []string
	Message        string
}

// Status probes the server and reports what an operator needs to fix, if anything.
func (c *Client) Status(ctx context.Context) Status {
	var st Status

	st.Running = c.Running(ctx)
	if !st.Running {
		st.Message = "Ollama service is not running. Start with 'ollama serve'"
		return st
	}

	st.Models, _ = c.Models(ctx)
	st.ModelAvailable = c.HasModel(ctx, c.model)

	switch {
	case st.ModelAvailable:
		st.Message = fmt.Sprintf("%s model ready", c.model)
	case len(st.Models) > 0:
		st.Message = fmt.Sprintf("%s not found. Available: %s", c.model, strings.Join(lo.Subset(st.Models, 0, 3), ", "))
	default:
		st.Message = fmt.Sprintf("No models installed. Install with: ollama pull %s", c.model)
	}
	return st
}

// do sends req and decodes a JSON body into out.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func baseName(model string) string {
	if i := strings.IndexByte(model, ':'); i >= 0 {
		return model[:i]
	}
	return model
}
