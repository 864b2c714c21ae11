package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"caption-plan-go/internal/annotator"
	"caption-plan-go/internal/config"
)

// VisualPrompt is the system prompt for per-segment visual decisions.
const VisualPrompt = `You are a video editing assistant.

Your task is to ANNOTATE caption segments.

Rules:
- Choose captionAnimation from: NONE, FADE, POP, SLIDE_UP
- Choose videoAnimation from: NONE, ZOOM_IN, ZOOM_OUT, SLIDE_UP, SLIDE_LEFT, FADE_IN
- Highlight at most 2 IMPORTANT words that already exist in the text
- NEVER highlight stopwords, filler words, or single letters
- NEVER highlight meaningless numbers unless they carry meaning
- Do NOT change text or timestamps
- Set isTitle true only if it sounds like an intro or section heading
- Set isSceneChange true when the segment starts a new idea worth a visual cut
- sectionTitle is optional: a short heading (max 5 words) for section starts
- Output ONLY valid JSON (no markdown, no explanation)

JSON format:
{
  "captionAnimation": "FADE",
  "videoAnimation": "NONE",
  "highlight": ["word1", "word2"],
  "isTitle": false,
  "isSceneChange": false,
  "sectionTitle": ""
}`

// Completer is the chat completion call the deciders and the editor need.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMDecider asks the gateway for one visual decision per segment.
type LLMDecider struct {
	completer Completer
}

func NewLLMDecider(c Completer) *LLMDecider {
	return &LLMDecider{completer: c}
}

func (d *LLMDecider) Decide(ctx context.Context, req annotator.Request) (string, error) {
	return d.completer.Complete(ctx, VisualPrompt, BuildVisualPrompt(req))
}

// BuildVisualPrompt renders the user message for one segment.
func BuildVisualPrompt(req annotator.Request) string {
	return fmt.Sprintf("Text: %q\nPosition: %s\nDuration: %.2f seconds\n", req.Text, req.PositionHint, req.DurationSeconds)
}

// MockDecider returns deterministic decisions without a network call.
// Enabled by USE_MOCK_LLM=true.
type MockDecider struct{}

func (MockDecider) Decide(_ context.Context, req annotator.Request) (string, error) {
	words := strings.Fields(req.Text)
	candidates := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'")
		if len(w) >= 3 && !annotator.IsStopword(w) {
			candidates = append(candidates, w)
		}
	}
	// longest words first, stable so ties keep spoken order
	sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })
	if len(candidates) > 2 {
		candidates = candidates[:2]
	}

	reply := map[string]any{
		"captionAnimation": "FADE",
		"videoAnimation":   "NONE",
		"highlight":        candidates,
		"isTitle":          req.PositionHint == annotator.PositionStart,
		"isSceneChange":    false,
	}
	if len(candidates) > 0 {
		reply["captionAnimation"] = "POP"
	}
	out, err := json.Marshal(reply)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

const currentPlanMarker = "CURRENT JSON:"

// MockCompleter answers edit requests offline by returning the current plan
// from the prompt unchanged. Enabled by USE_MOCK_LLM=true.
type MockCompleter struct{}

func (MockCompleter) Complete(_ context.Context, _, userPrompt string) (string, error) {
	_, plan, ok := strings.Cut(userPrompt, currentPlanMarker)
	if !ok {
		return "", errors.New("mock completer: prompt carries no current plan")
	}
	return strings.TrimSpace(plan), nil
}

// NewEditCompleter returns the completer used for plan edits: the mock when
// UseMock is set, otherwise a gateway client bounded by the edit timeout.
func NewEditCompleter(cfg config.LLM) Completer {
	if cfg.UseMock {
		return MockCompleter{}
	}
	cfg.TimeoutSeconds = cfg.EditTimeoutSeconds
	return NewClient(cfg)
}
