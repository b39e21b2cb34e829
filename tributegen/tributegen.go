// Package tributegen drafts tribute text with the Gemini API.  The feature
// degrades to a canned sentence whenever the API is unconfigured or fails,
// never to a visible error.
package tributegen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-3-flash-preview"

// Fallback is returned whenever no generated text is available.
const Fallback = "Hearty congratulations to Alhaji Ibrahim Saidu on a meritorious career. Your leadership and dedication have left an indelible mark on NYSC."

// emptyResponseFallback covers the narrower case of a successful call that
// produced no text.
const emptyResponseFallback = "I wish Alhaji Ibrahim Saidu a very happy retirement. His legacy of service and integrity will always be remembered."

// textModel is the one call the generator makes against the API.
type textModel interface {
	generate(ctx context.Context, prompt string) (string, error)
}

type genaiModel struct {
	client *genai.Client
	model  string
}

func (m *genaiModel) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("while generating content: %w", err)
	}
	return resp.Text(), nil
}

// Generator drafts tributes.  A zero-value or unconfigured Generator is
// valid and always returns the fallback.
type Generator struct {
	model textModel
}

// New builds a Generator.  An empty API key or a failed client setup yields
// a fallback-only generator, not an error: absence of the key must be
// tolerated.
func New(ctx context.Context, apiKey string) *Generator {
	if apiKey == "" {
		slog.WarnContext(ctx, "Tribute generation API key is not configured; using fallback text")
		return &Generator{}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		slog.WarnContext(ctx, "Tribute generation client setup failed; using fallback text", slog.Any("err", err))
		return &Generator{}
	}

	return &Generator{model: &genaiModel{client: client, model: defaultModel}}
}

func prompt(senderName, relationship, memory string) string {
	return fmt.Sprintf(`Write a formal, elegant, and heartwarming retirement tribute for Alhaji Ibrahim Saidu.
Alhaji Ibrahim Saidu is the 20th State Coordinator of NYSC Katsina State, retiring on April 30, 2026.
He joined NYSC in 1998 and is known for integrity, professionalism, and mentorship.

Details to include:
- Sender Name: %s
- Relationship: %s
- Specific Memory/Sentiment: %s

The tone should be respectful, appreciative, and celebratory. Keep it between 100-150 words.`, senderName, relationship, memory)
}

// GenerateTribute drafts a tribute.  It never fails: any API problem
// resolves to the fixed fallback string.
func (g *Generator) GenerateTribute(ctx context.Context, senderName, relationship, memory string) string {
	if g.model == nil {
		return Fallback
	}

	text, err := g.model.generate(ctx, prompt(senderName, relationship, memory))
	if err != nil {
		slog.WarnContext(ctx, "Tribute generation failed; using fallback text", slog.Any("err", err))
		return Fallback
	}
	if strings.TrimSpace(text) == "" {
		return emptyResponseFallback
	}
	return text
}
