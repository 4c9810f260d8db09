// Package gemini wraps the Google GenAI SDK behind a small chat interface
// suitable for a tool-calling conversation loop.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Config for the Gemini client.
type Config struct {
	APIKey string
	Model  string
}

// Client is a thin wrapper over the GenAI SDK. It exposes a single
// request/response call; conversation state lives with the caller.
type Client struct {
	config Config
	client *genai.Client
}

// NewClient creates a Gemini client against the public Gemini API backend.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{config: cfg, client: client}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.config.Model
}

// ChatRequest is one conversation turn sent to the model: the full history,
// the system instruction, and the declared tool set.
type ChatRequest struct {
	System          string
	Contents        []*genai.Content
	Tools           []*genai.FunctionDeclaration
	MaxOutputTokens int32
	Temperature     *float32
}

// TokenUsage carries per-call token accounting.
type TokenUsage struct {
	Prompt int
	Output int
	Total  int
}

// ChatResponse is the model's reply: either a set of requested function calls
// or a final text answer, plus token usage for the call.
type ChatResponse struct {
	// Content is the raw model turn, suitable for appending to the
	// conversation history verbatim.
	Content       *genai.Content
	FunctionCalls []*genai.FunctionCall
	Text          string
	Usage         TokenUsage
}

// HasFunctionCalls reports whether the model requested tool execution.
func (r *ChatResponse) HasFunctionCalls() bool {
	return len(r.FunctionCalls) > 0
}

// Chat sends the conversation to the model and returns its next turn.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	cfg := &genai.GenerateContentConfig{}

	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: req.Tools}}
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = req.MaxOutputTokens
	}
	if req.Temperature != nil {
		cfg.Temperature = req.Temperature
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, req.Contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	out := &ChatResponse{Usage: usageFromResponse(resp)}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		// Usage still counts even when the response is unusable.
		return out, fmt.Errorf("gemini returned no candidates")
	}

	candidate := resp.Candidates[0].Content
	out.Content = candidate
	out.Text = textFromContent(candidate)
	for _, part := range candidate.Parts {
		if part != nil && part.FunctionCall != nil {
			out.FunctionCalls = append(out.FunctionCalls, part.FunctionCall)
		}
	}

	return out, nil
}

func usageFromResponse(resp *genai.GenerateContentResponse) TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return TokenUsage{}
	}
	return TokenUsage{
		Prompt: int(resp.UsageMetadata.PromptTokenCount),
		Output: int(resp.UsageMetadata.CandidatesTokenCount),
		Total:  int(resp.UsageMetadata.TotalTokenCount),
	}
}

func textFromContent(content *genai.Content) string {
	var sb strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}
