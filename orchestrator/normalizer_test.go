package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"navi/capability"
	"navi/model"
	"navi/provider/testutil"
)

func TestNormalizeSmallResultsPassThrough(t *testing.T) {
	n := NewNormalizer(nil)
	ctx := context.Background()

	got := n.Normalize(ctx, &capability.Result{Data: "plain text output"})
	if got != "plain text output" {
		t.Errorf("Normalize(string) = %q", got)
	}

	got = n.Normalize(ctx, &capability.Result{Data: map[string]any{"issue": "NAV-42", "open": true}})
	if !strings.Contains(got, `"issue": "NAV-42"`) {
		t.Errorf("structured data not serialized as indented JSON: %q", got)
	}
}

func TestNormalizePrependsContextNote(t *testing.T) {
	n := NewNormalizer(nil)

	got := n.Normalize(context.Background(), &capability.Result{
		Data:        "comment posted",
		ContextNote: "This tool modified the page.",
	})

	want := "IMPORTANT CONTEXT: This tool modified the page.\n\ncomment posted"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeTruncatesWithoutAuxModel(t *testing.T) {
	n := NewNormalizer(nil)
	big := strings.Repeat("x", 60000)

	got := n.Normalize(context.Background(), &capability.Result{Data: big})

	marker := fmt.Sprintf("\n[truncated, %d chars originally]", len(big))
	if !strings.HasSuffix(got, marker) {
		t.Fatalf("missing truncation marker, got tail %q", got[len(got)-60:])
	}
	if len(got) != defaultTruncationBudget+len(marker) {
		t.Errorf("truncated length = %d, want %d", len(got), defaultTruncationBudget+len(marker))
	}
}

func TestNormalizeCompressesThroughAuxModel(t *testing.T) {
	aux := testutil.NewMockProvider("aux-model")
	var sawPrompt bool
	aux.ChatFunc = func(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
		if len(messages) == 2 && messages[0].Role == "system" {
			sawPrompt = true
		}
		return callback("42 repositories found, top result golang/go.", nil)
	}

	n := NewNormalizer(aux)
	big := strings.Repeat("repository listing row\n", 3000)

	got := n.Normalize(context.Background(), &capability.Result{Data: big})
	if got != "42 repositories found, top result golang/go." {
		t.Errorf("Normalize = %q, want the aux summary", got)
	}
	if !sawPrompt {
		t.Error("aux model was not given the compression system prompt")
	}
}

func TestNormalizeFallsBackToTruncationOnAuxFailure(t *testing.T) {
	aux := testutil.NewMockProvider("aux-model")
	aux.ChatFunc = func(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
		return errors.New("model overloaded")
	}

	n := NewNormalizer(aux)
	big := strings.Repeat("y", 55000)

	got := n.Normalize(context.Background(), &capability.Result{Data: big})
	if !strings.Contains(got, "[truncated, 55000 chars originally]") {
		t.Errorf("aux failure did not fall back to truncation: tail %q", got[len(got)-60:])
	}
}

func TestNormalizeRejectsUselessSummaries(t *testing.T) {
	tests := []struct {
		name    string
		summary string
	}{
		{"empty summary", "   "},
		{"summary not shorter than input", strings.Repeat("z", 70000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aux := testutil.NewMockProvider("aux-model")
			summary := tt.summary
			aux.ChatFunc = func(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
				return callback(summary, nil)
			}

			n := NewNormalizer(aux)
			got := n.Normalize(context.Background(), &capability.Result{Data: strings.Repeat("x", 60000)})
			if !strings.Contains(got, "[truncated, 60000 chars originally]") {
				t.Errorf("useless summary accepted instead of truncating")
			}
		})
	}
}

func TestSerializeResult(t *testing.T) {
	if got := serializeResult("already a string"); got != "already a string" {
		t.Errorf("serializeResult(string) = %q", got)
	}

	got := serializeResult([]string{"a", "b"})
	if !strings.Contains(got, `"a"`) || !strings.HasPrefix(got, "[") {
		t.Errorf("serializeResult(slice) = %q", got)
	}

	// Channels cannot be marshaled; fmt fallback instead of an error.
	if got := serializeResult(make(chan int)); got == "" {
		t.Error("serializeResult(unserializable) returned empty string")
	}
}

func TestTruncateShortInputUntouched(t *testing.T) {
	if got := truncate("short", 100); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
}
