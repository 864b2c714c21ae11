package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"caption-plan-go/internal/config"
	"caption-plan-go/internal/logger"
	"caption-plan-go/internal/types"
)

// Tools wraps the ffmpeg and ffprobe binaries.
type Tools struct {
	ffmpeg  string
	ffprobe string
	log     *logger.Logger
}

func New(cfg config.Media) *Tools {
	ffmpeg := strings.TrimSpace(cfg.FFmpegPath)
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	ffprobe := strings.TrimSpace(cfg.FFprobePath)
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	return &Tools{ffmpeg: ffmpeg, ffprobe: ffprobe, log: logger.New()}
}

// ExtractAudio writes a 16 kHz mono PCM wav next to the video and returns
// its path.
func (t *Tools) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	out := AudioPathFor(videoPath)
	cmd := exec.CommandContext(ctx, t.ffmpeg,
		"-y", "-i", videoPath,
		"-vn", "-acodec", "pcm_s16le",
		"-ar", "16000", "-ac", "1",
		out,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.log.WithField("component", "media").WithError(err).Error("ffmpeg extraction failed")
		return "", fmt.Errorf("ffmpeg: %w: %s", err, tail(string(output)))
	}
	t.log.WithField("component", "media").WithField("audio", out).Info("audio extracted")
	return out, nil
}

// AudioPathFor returns where ExtractAudio writes the audio for videoPath.
func AudioPathFor(videoPath string) string {
	ext := filepath.Ext(videoPath)
	base := strings.TrimSuffix(videoPath, ext)
	if strings.EqualFold(ext, ".wav") {
		return base + "_audio.wav"
	}
	return base + ".wav"
}

// Probe reads width, height and duration of the first video stream.
func (t *Tools) Probe(ctx context.Context, path string) (types.Metadata, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return types.Metadata{}, errors.New("ffprobe: empty path")
	}
	cmd := exec.CommandContext(ctx, t.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,duration:format=duration",
		"-of", "json",
		"--", path,
	)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return types.Metadata{}, fmt.Errorf("ffprobe: %w: %s", err, tail(string(exitErr.Stderr)))
		}
		return types.Metadata{}, fmt.Errorf("ffprobe: %w", err)
	}
	return ParseProbe(output)
}

type probeResult struct {
	Streams []struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Duration string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseProbe decodes ffprobe JSON output. Containers that report duration
// only at format level fall back to it.
func ParseProbe(output []byte) (types.Metadata, error) {
	var res probeResult
	if err := json.Unmarshal(output, &res); err != nil {
		return types.Metadata{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	if len(res.Streams) == 0 {
		return types.Metadata{}, errors.New("ffprobe: no video stream")
	}
	s := res.Streams[0]
	duration := parseFloat(s.Duration)
	if duration == 0 {
		duration = parseFloat(res.Format.Duration)
	}
	return types.Metadata{Width: s.Width, Height: s.Height, Duration: duration}, nil
}

func parseFloat(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return v
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 512 {
		return s[len(s)-512:]
	}
	return s
}
