package annotator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"caption-plan-go/internal/types"
)

const maxSectionTitleRunes = 60

// Request is the context sent to the decision service for one segment.
type Request struct {
	Text            string  `json:"text"`
	PositionHint    string  `json:"positionHint"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Decision is a decoded decision service reply with defaults filled in.
// Highlight candidates are not sanitized yet.
type Decision struct {
	Highlight        []string
	CaptionAnimation types.CaptionAnimation
	VideoAnimation   types.VideoAnimation
	IsTitle          bool
	IsSceneChange    bool
	SectionTitle     string
}

// rawDecision mirrors every field any prompt variant has produced. Each
// field is decoded on its own so a wrongly typed value only loses itself.
type rawDecision struct {
	Highlight        json.RawMessage `json:"highlight"`
	CaptionAnimation json.RawMessage `json:"captionAnimation"`
	Animation        json.RawMessage `json:"animation"`
	VideoAnimation   json.RawMessage `json:"videoAnimation"`
	IsTitle          json.RawMessage `json:"isTitle"`
	IsSceneChange    json.RawMessage `json:"isSceneChange"`
	SectionTitle     json.RawMessage `json:"sectionTitle"`
}

// ParseDecision strips an optional code fence and decodes the reply.
func ParseDecision(content string) (Decision, error) {
	body := StripFence(content)
	if body == "" {
		return Decision{}, errors.New("empty decision payload")
	}
	if !strings.HasPrefix(body, "{") {
		return Decision{}, errors.New("decision payload is not a JSON object")
	}
	var raw rawDecision
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}

	d := Decision{
		Highlight:        stringList(raw.Highlight),
		CaptionAnimation: types.CaptionFade,
		VideoAnimation:   types.VideoNone,
		IsTitle:          isTrue(raw.IsTitle),
		IsSceneChange:    isTrue(raw.IsSceneChange),
	}

	anim := stringValue(raw.CaptionAnimation)
	if anim == "" {
		anim = stringValue(raw.Animation)
	}
	if a := types.CaptionAnimation(strings.ToUpper(anim)); a.Valid() {
		d.CaptionAnimation = a
	}
	if v := types.VideoAnimation(strings.ToUpper(stringValue(raw.VideoAnimation))); v.Valid() {
		d.VideoAnimation = v
	}

	title := strings.TrimSpace(stringValue(raw.SectionTitle))
	if utf8.RuneCountInString(title) > maxSectionTitleRunes {
		title = string([]rune(title)[:maxSectionTitleRunes])
	}
	d.SectionTitle = title
	return d, nil
}

// StripFence removes a leading ``` (optionally tagged) line and a trailing
// ``` from content.
func StripFence(content string) string {
	s := strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		// single line fence: ```json {...}```
		s = strings.TrimLeft(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func isTrue(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}
