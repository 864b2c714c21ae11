package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"caption-plan-go/internal/annotator"
	"caption-plan-go/internal/config"
	"caption-plan-go/internal/logger"
	"caption-plan-go/internal/types"
)

// SystemPrompt is the contract the edit model works under.
const SystemPrompt = `You are an expert video configuration assistant.
Your goal is to modify the provided JSON video edit plan based on the user's Natural Language request.

The JSON structure represents a video with multiple "segments".
Each segment has:
- text: The spoken words
- start/end: Timing (DO NOT TOUCH THESE unless explicitly asked, as they sync with audio)
- highlight: Array of words to highlight
- captionAnimation: "FADE", "POP", "SLIDE_UP", "NONE"
- videoAnimation: "ZOOM_IN", "ZOOM_OUT", "SLIDE_UP", "SLIDE_LEFT", "FADE_IN", "NONE"
- isTitle: Whether the segment is shown as a title
- isSceneChange: Whether the segment starts a new visual scene
- sectionTitle: A short string displayed in the corner
- sectionTitleSize: (Optional) Font size in px (e.g., 60, 80, 100)
- captionColor: (Optional) Hex code or color name for text
- captionSize: (Optional) Font size in px (e.g., 40, 60)
- highlightColor: (Optional) Hex code for active word

INSTRUCTIONS:
1. Parse the USER REQUEST.
2. Modify ONLY what is asked. Leave every other field exactly as it is.
3. Never alter start or end unless the request explicitly asks for it.
4. If the user asks for a global change (e.g., "Make all captions yellow"), update ALL segments.
5. If the user asks for a specific change (e.g., "Change the title of the first clip"), update only that segment.
6. Return ONLY the valid, parseable JSON. No markdown, no conversation.`

// Completer is the chat completion call used for edits.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// EditApplyError reports an edit whose replacement plan could not be
// obtained or parsed. The prior plan is left untouched.
type EditApplyError struct {
	Raw string
	Err error
}

func (e *EditApplyError) Error() string {
	return fmt.Sprintf("apply edit: %v", e.Err)
}

func (e *EditApplyError) Unwrap() error {
	return e.Err
}

// Editor rewrites an edit plan from a free-text instruction.
type Editor struct {
	completer Completer
	settings  config.Pipeline
	log       *logger.Logger
}

// New returns an Editor whose replies are held to the highlight rules in
// settings.
func New(c Completer, settings config.Pipeline) *Editor {
	return &Editor{completer: c, settings: settings, log: logger.New()}
}

// Apply sends the plan and instruction to the model and returns its
// replacement plan wholesale. plan itself is never modified.
func (e *Editor) Apply(ctx context.Context, plan types.EditPlan, instruction string) (types.EditPlan, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return types.EditPlan{}, &EditApplyError{Err: errors.New("instruction required")}
	}
	current, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return types.EditPlan{}, &EditApplyError{Err: fmt.Errorf("encode current plan: %w", err)}
	}

	log := e.log.WithField("component", "editor").WithField("segments", len(plan.Segments))
	log.WithField("instruction", instruction).Info("requesting plan edit")

	raw, err := e.completer.Complete(ctx, SystemPrompt, BuildUserPrompt(instruction, current))
	if err != nil {
		return types.EditPlan{}, &EditApplyError{Raw: raw, Err: err}
	}
	next, err := ParsePlan(raw, e.settings)
	if err != nil {
		log.WithError(err).Warn("edit reply unparsable")
		return types.EditPlan{}, &EditApplyError{Raw: raw, Err: err}
	}

	log.WithField("new_segments", len(next.Segments)).Info("plan edit parsed")
	return next, nil
}

// BuildUserPrompt renders the user message for an edit request.
func BuildUserPrompt(instruction string, currentJSON []byte) string {
	return fmt.Sprintf("USER REQUEST: %q\n\nCURRENT JSON:\n%s\n", instruction, currentJSON)
}

// ParsePlan decodes a model reply into an edit plan. The reply must be a
// JSON object carrying a segments array, and every segment must have known
// animations and an ordered time span. Highlights are sanitized against
// each segment's text.
func ParsePlan(content string, settings config.Pipeline) (types.EditPlan, error) {
	body := annotator.StripFence(content)
	if !strings.HasPrefix(body, "{") {
		return types.EditPlan{}, errors.New("edit reply is not a JSON object")
	}
	var probe struct {
		Segments json.RawMessage `json:"segments"`
	}
	if err := json.Unmarshal([]byte(body), &probe); err != nil {
		return types.EditPlan{}, fmt.Errorf("decode edit reply: %w", err)
	}
	if len(probe.Segments) == 0 || probe.Segments[0] != '[' {
		return types.EditPlan{}, errors.New("edit reply has no segments array")
	}
	var plan types.EditPlan
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		return types.EditPlan{}, fmt.Errorf("decode edit plan: %w", err)
	}
	for i := range plan.Segments {
		seg := &plan.Segments[i]
		if err := checkSegment(*seg); err != nil {
			return types.EditPlan{}, fmt.Errorf("segment %d: %w", i, err)
		}
		seg.Highlight = annotator.SanitizeHighlights(seg.Text, seg.Highlight, settings.HighlightLimit, settings.MinHighlightLength)
	}
	return plan, nil
}

func checkSegment(seg types.AnnotatedSegment) error {
	switch {
	case !seg.CaptionAnimation.Valid():
		return fmt.Errorf("unknown captionAnimation %q", seg.CaptionAnimation)
	case !seg.VideoAnimation.Valid():
		return fmt.Errorf("unknown videoAnimation %q", seg.VideoAnimation)
	case seg.Start < 0:
		return fmt.Errorf("negative start %v", seg.Start)
	case seg.Start > seg.End:
		return fmt.Errorf("start %v after end %v", seg.Start, seg.End)
	}
	return nil
}
