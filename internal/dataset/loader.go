package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"caption-plan-go/internal/logger"
	"caption-plan-go/internal/types"
)

// LoadTranscript reads timed transcript entries from a .json or .xlsx file.
//
// JSON may be a bare array of {text,start,end} or a transcription reply
// carrying a "segments" array. Spreadsheets are read from the first sheet
// with columns detected by header.
func LoadTranscript(path string) ([]types.TranscriptEntry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadSheet(path)
	case ".json", "":
		return loadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported transcript format %q", filepath.Ext(path))
	}
}

func loadJSON(path string) ([]types.TranscriptEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))

	var entries []types.TranscriptEntry
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
	} else {
		var wrapped struct {
			Segments []types.TranscriptEntry `json:"segments"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapped); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
		entries = wrapped.Segments
	}
	for i := range entries {
		entries[i].Text = strings.TrimSpace(entries[i].Text)
	}
	if entries == nil {
		entries = []types.TranscriptEntry{}
	}
	return entries, nil
}

// loadSheet attempts to auto-detect text/start/end columns by header heuristics
func loadSheet(path string) ([]types.TranscriptEntry, error) {
	log := logger.New().WithField("component", "dataset.loader").WithField("path", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	textIdx, startIdx, endIdx := -1, -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case textIdx == -1 && (strings.Contains(l, "text") || strings.Contains(l, "transcript") || strings.Contains(l, "caption")):
			textIdx = i
		case startIdx == -1 && (strings.Contains(l, "start") || l == "from" || l == "in"):
			startIdx = i
		case endIdx == -1 && (strings.Contains(l, "end") || strings.Contains(l, "stop") || l == "to" || l == "out"):
			endIdx = i
		}
	}
	// fallback: start, end, text in the first three columns
	if textIdx == -1 && startIdx == -1 && endIdx == -1 && len(rows[0]) >= 3 {
		startIdx, endIdx, textIdx = 0, 1, 2
	}
	if textIdx == -1 || startIdx == -1 || endIdx == -1 {
		return nil, fmt.Errorf("could not detect text/start/end columns in %v", rows[0])
	}
	log.WithField("text_idx", textIdx).
		WithField("start_idx", startIdx).
		WithField("end_idx", endIdx).
		Debug("detected transcript columns")

	out := []types.TranscriptEntry{}
	for i, r := range rows {
		if i == 0 {
			continue
		}
		text := cell(r, textIdx)
		if text == "" {
			// skip blank rows quietly
			continue
		}
		start, err := strconv.ParseFloat(cell(r, startIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: start %q: %w", i+1, cell(r, startIdx), err)
		}
		end, err := strconv.ParseFloat(cell(r, endIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: end %q: %w", i+1, cell(r, endIdx), err)
		}
		out = append(out, types.TranscriptEntry{Text: text, Start: start, End: end})
	}
	log.WithField("entries", len(out)).Info("transcript sheet loaded")
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
