package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"caption-plan-go/internal/config"
	"caption-plan-go/internal/logger"
	"caption-plan-go/internal/types"
)

const (
	defaultHTTPTimeout  = 5 * time.Minute
	defaultMaxRetryTime = 2 * time.Minute
)

// Client posts audio to an OpenAI-compatible /audio/transcriptions endpoint.
type Client struct {
	url          string
	apiKey       string
	model        string
	maxRetryTime time.Duration
	httpClient   *http.Client
	log          *logger.Logger
}

func NewClient(cfg config.Transcribe) *Client {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "whisper-1"
	}
	return &Client{
		url:          strings.TrimSpace(cfg.URL),
		apiKey:       strings.TrimSpace(cfg.APIKey),
		model:        model,
		maxRetryTime: defaultMaxRetryTime,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		log:          logger.New(),
	}
}

// Transcribe uploads the audio file and returns its timed segments.
func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]types.TranscriptEntry, error) {
	if c.url == "" {
		return nil, errors.New("TRANSCRIBE_URL not set")
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	log := c.log.WithField("module", "transcription").WithField("audio", audioPath)
	log.WithField("bytes", len(audio)).Info("starting transcription")

	var entries []types.TranscriptEntry
	var lastErr error

	op := func() error {
		body, contentType, err := c.buildForm(filepath.Base(audioPath), audio)
		if err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			log.WithError(err).Warn("transcription request failed")
			return err
		}
		defer resp.Body.Close()

		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("transcription server error: http %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("transcription rejected: http %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
			return backoff.Permanent(lastErr)
		}

		parsed, err := ParseVerbose(data)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		entries = parsed
		lastErr = nil
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxRetryTime
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, fmt.Errorf("transcription failed: %w", lastErr)
	}

	log.WithField("entries", len(entries)).Info("transcription complete")
	return entries, nil
}

// buildForm renders the multipart body for one attempt.
func (c *Client) buildForm(filename string, audio []byte) (io.Reader, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("model", c.model); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &b, w.FormDataContentType(), nil
}
