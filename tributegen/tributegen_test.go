package tributegen

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type scriptedModel struct {
	text string
	err  error

	lastPrompt string
}

func (m *scriptedModel) generate(ctx context.Context, prompt string) (string, error) {
	m.lastPrompt = prompt
	return m.text, m.err
}

func TestUnconfiguredGeneratorFallsBack(t *testing.T) {
	g := New(context.Background(), "")

	got := g.GenerateTribute(context.Background(), "Amina", "Colleague", "The camp days")
	if got != Fallback {
		t.Errorf("Bad text from unconfigured generator; got %q, want the fallback", got)
	}
}

func TestFailedGenerationFallsBack(t *testing.T) {
	g := &Generator{model: &scriptedModel{err: errors.New("quota exhausted")}}

	got := g.GenerateTribute(context.Background(), "Amina", "Colleague", "The camp days")
	if got != Fallback {
		t.Errorf("Bad text from failed generation; got %q, want the fallback", got)
	}
}

func TestEmptyGenerationFallsBack(t *testing.T) {
	g := &Generator{model: &scriptedModel{text: "  \n "}}

	got := g.GenerateTribute(context.Background(), "Amina", "Colleague", "The camp days")
	if got != emptyResponseFallback {
		t.Errorf("Bad text from empty generation; got %q, want the empty-response fallback", got)
	}
}

func TestGeneratedTextPassesThrough(t *testing.T) {
	want := "A heartfelt tribute."
	g := &Generator{model: &scriptedModel{text: want}}

	got := g.GenerateTribute(context.Background(), "Amina", "Colleague", "The camp days")
	if got != want {
		t.Errorf("Bad generated text; got %q, want %q", got, want)
	}
}

func TestPromptCarriesVisitorDetails(t *testing.T) {
	m := &scriptedModel{text: "ok"}
	g := &Generator{model: m}

	g.GenerateTribute(context.Background(), "Amina Bello", "Corps Member", "Orientation camp 2019")

	for _, detail := range []string{"Amina Bello", "Corps Member", "Orientation camp 2019"} {
		if !strings.Contains(m.lastPrompt, detail) {
			t.Errorf("Prompt is missing detail %q", detail)
		}
	}
}
