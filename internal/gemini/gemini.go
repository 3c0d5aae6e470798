// Package gemini performs the single generate call whose response is probed
// for images.
package gemini

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	apierrors "github.com/diogo/genaiprobe/internal/errors"
	"github.com/diogo/genaiprobe/internal/extract"
)

// DefaultModalities asks image-capable models for both text and image output.
var DefaultModalities = []string{"TEXT", "IMAGE"}

// Request holds the three inputs of a generate call.
type Request struct {
	APIKey string
	Model  string
	Prompt string
	// Modalities overrides the client's response modalities when non-empty.
	Modalities []string
}

// Validate checks that every input is present.
func (r Request) Validate() error {
	if strings.TrimSpace(r.APIKey) == "" {
		return apierrors.ErrNoAPIKey
	}
	if strings.TrimSpace(r.Model) == "" {
		return apierrors.NewValidationError("model", "cannot be empty")
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return apierrors.ErrEmptyPrompt
	}
	return nil
}

// Generator produces a response tree for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Client implements Generator with the Gemini API. Each Generate call makes
// exactly one request.
type Client struct {
	modalities []string
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModalities sets the requested response modalities. An empty list
// leaves the choice to the model.
func WithModalities(modalities []string) ClientOption {
	return func(c *Client) {
		c.modalities = modalities
	}
}

// NewClient creates a new Client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{modalities: DefaultModalities}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends req.Prompt to req.Model.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  req.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apierrors.NewGenerateError(req.Model, err)
	}

	var config *genai.GenerateContentConfig
	if modalities := c.responseModalities(req); len(modalities) > 0 {
		config = &genai.GenerateContentConfig{ResponseModalities: modalities}
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, apierrors.NewGenerateError(req.Model, err)
	}

	return &Response{Raw: resp, Model: req.Model, Duration: time.Since(start)}, nil
}

func (c *Client) responseModalities(req Request) []string {
	if len(req.Modalities) > 0 {
		return req.Modalities
	}
	return c.modalities
}

// Response wraps the SDK response. It exposes the SDK's attributes to the
// extractor and adds a "parts" shortcut to the first candidate's parts.
type Response struct {
	Raw      *genai.GenerateContentResponse
	Model    string
	Duration time.Duration
}

var _ extract.Object = (*Response)(nil)

// Field implements extract.Object.
func (r *Response) Field(name string) (any, bool) {
	if r == nil || r.Raw == nil {
		return nil, false
	}
	if name == "parts" {
		parts := r.Parts()
		return parts, parts != nil
	}
	obj, ok := extract.Attributes(r.Raw)
	if !ok {
		return nil, false
	}
	return obj.Field(name)
}

// Parts returns the first candidate's content parts, or nil.
func (r *Response) Parts() []*genai.Part {
	if r == nil || r.Raw == nil || len(r.Raw.Candidates) == 0 {
		return nil
	}
	candidate := r.Raw.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil
	}
	return candidate.Content.Parts
}

// Text returns the concatenated non-thought text of the first candidate.
func (r *Response) Text() string {
	var sb strings.Builder
	for _, part := range r.Parts() {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// FinishReason returns the first candidate's finish reason, or "".
func (r *Response) FinishReason() string {
	if r == nil || r.Raw == nil || len(r.Raw.Candidates) == 0 || r.Raw.Candidates[0] == nil {
		return ""
	}
	return string(r.Raw.Candidates[0].FinishReason)
}
