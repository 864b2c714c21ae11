package types

// TranscriptEntry is one timestamped utterance from the transcription backend.
type TranscriptEntry struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Chunk is a sub-string of an entry's text that has not been timed yet.
type Chunk struct {
	Text  string `json:"text"`
	Words int    `json:"words"`
}

type TimedChunk struct {
	Chunk
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a caption-sized unit of timed text.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns end-start in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Metadata describes the source video.
type Metadata struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Duration float64 `json:"duration"`
}
