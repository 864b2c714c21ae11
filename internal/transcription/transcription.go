package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"caption-plan-go/internal/config"
	"caption-plan-go/internal/types"
)

// Transcriber turns an audio file into timed transcript entries.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]types.TranscriptEntry, error)
}

// New returns the mock when cfg.UseMock is set (USE_MOCK_TRANSCRIBE=true),
// otherwise the HTTP client.
func New(cfg config.Transcribe) Transcriber {
	if cfg.UseMock {
		return Mock{}
	}
	return NewClient(cfg)
}

type verboseResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

// ParseVerbose maps a verbose_json reply to transcript entries with trimmed
// text.
func ParseVerbose(body []byte) ([]types.TranscriptEntry, error) {
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	var resp verboseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("json decode error: %v body=%s", err, string(body))
	}
	if resp.Segments == nil {
		return nil, fmt.Errorf("transcription reply has no segments: %s", string(body))
	}
	out := make([]types.TranscriptEntry, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		out = append(out, types.TranscriptEntry{
			Text:  strings.TrimSpace(s.Text),
			Start: s.Start,
			End:   s.End,
		})
	}
	return out, nil
}

// Mock returns a fixed transcript without touching the network.
type Mock struct{}

func (Mock) Transcribe(context.Context, string) ([]types.TranscriptEntry, error) {
	return []types.TranscriptEntry{
		{Text: "Welcome back to the channel.", Start: 0, End: 2.4},
		{Text: "Today we are building a caption engine, and it is going to be fast.", Start: 2.4, End: 7.1},
		{Text: "Let's go.", Start: 7.1, End: 8},
	}, nil
}
