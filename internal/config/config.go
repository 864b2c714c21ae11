package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Pipeline holds the segmentation and annotation tuning knobs.
type Pipeline struct {
	MaxWords           int     `toml:"max_words"`
	MinWords           int     `toml:"min_words"`
	HighlightLimit     int     `toml:"highlight_limit"`
	MinHighlightLength int     `toml:"min_highlight_length"`
	TitleMinSeconds    float64 `toml:"title_min_seconds"`
	SceneChangeFloor   int     `toml:"scene_change_floor"`
	TrackSceneChanges  bool    `toml:"track_scene_changes"`
}

type Server struct {
	Port                string `toml:"port"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// LLM contains the chat completion gateway settings.
type LLM struct {
	GatewayURL         string `toml:"gateway_url"`
	APIKey             string `toml:"api_key"`
	Model              string `toml:"model"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	MaxRetrySeconds    int    `toml:"max_retry_seconds"`
	RequestsPerMinute  int    `toml:"requests_per_minute"`
	UseMock            bool   `toml:"use_mock"`
	EditTimeoutSeconds int    `toml:"edit_timeout_seconds"`
}

type Transcribe struct {
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	UseMock bool   `toml:"use_mock"`
}

type Media struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

// Storage contains on-disk locations.
type Storage struct {
	UploadDir       string `toml:"upload_dir"`
	RenderPublicDir string `toml:"render_public_dir"`
	ProjectFile     string `toml:"project_file"`
	HistoryDB       string `toml:"history_db"`
}

// Config holds the full application configuration.
type Config struct {
	Server     Server     `toml:"server"`
	LLM        LLM        `toml:"llm"`
	Transcribe Transcribe `toml:"transcribe"`
	Media      Media      `toml:"media"`
	Storage    Storage    `toml:"storage"`
	Pipeline   Pipeline   `toml:"pipeline"`
}

// DefaultPipeline returns the caption pipeline defaults.
func DefaultPipeline() Pipeline {
	return Pipeline{
		MaxWords:           6,
		MinWords:           2,
		HighlightLimit:     2,
		MinHighlightLength: 3,
		TitleMinSeconds:    2,
		SceneChangeFloor:   3,
		TrackSceneChanges:  true,
	}
}

// Default returns a Config with hardcoded defaults.
func Default() *Config {
	return &Config{
		Server: Server{
			Port:                "8080",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 600,
		},
		LLM: LLM{
			GatewayURL:         "https://api.openai.com/v1/chat/completions",
			Model:              "gpt-4o-mini",
			TimeoutSeconds:     25,
			MaxRetrySeconds:    45,
			RequestsPerMinute:  60,
			EditTimeoutSeconds: 60,
		},
		Transcribe: Transcribe{
			URL:   "https://api.openai.com/v1/audio/transcriptions",
			Model: "whisper-1",
		},
		Media: Media{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
		Storage: Storage{
			UploadDir:       "storage/uploads",
			RenderPublicDir: "../frontend-renderer/public",
			ProjectFile:     "../frontend-renderer/src/sample.json",
			HistoryDB:       "storage/outputs/history.db",
		},
		Pipeline: DefaultPipeline(),
	}
}

// Load builds the configuration from defaults, an optional TOML file named
// by CAPTION_CONFIG and finally environment variables.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CAPTION_CONFIG"))
}

// LoadFrom is Load with an explicit TOML path; an empty path skips the file.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if path = strings.TrimSpace(path); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = envOr("PORT", c.Server.Port)

	c.LLM.GatewayURL = envOr("LLM_GATEWAY_URL", c.LLM.GatewayURL)
	c.LLM.APIKey = envOr("LLM_API_KEY", envOr("OPENAI_API_KEY", c.LLM.APIKey))
	c.LLM.Model = envOr("LLM_MODEL", c.LLM.Model)
	c.LLM.RequestsPerMinute = envInt("LLM_REQUESTS_PER_MINUTE", c.LLM.RequestsPerMinute)
	c.LLM.UseMock = envBool("USE_MOCK_LLM", c.LLM.UseMock)

	c.Transcribe.URL = envOr("TRANSCRIBE_URL", c.Transcribe.URL)
	c.Transcribe.APIKey = envOr("TRANSCRIBE_API_KEY", envOr("OPENAI_API_KEY", c.Transcribe.APIKey))
	c.Transcribe.Model = envOr("TRANSCRIBE_MODEL", c.Transcribe.Model)
	c.Transcribe.UseMock = envBool("USE_MOCK_TRANSCRIBE", c.Transcribe.UseMock)

	if ff := os.Getenv("FFMPEG_PATH"); ff != "" {
		c.Media.FFmpegPath = ff
		// ffprobe ships next to ffmpeg
		c.Media.FFprobePath = strings.Replace(ff, "ffmpeg", "ffprobe", 1)
	}
	c.Media.FFprobePath = envOr("FFPROBE_PATH", c.Media.FFprobePath)

	c.Storage.UploadDir = envOr("UPLOAD_DIR", c.Storage.UploadDir)
	c.Storage.RenderPublicDir = envOr("RENDER_PUBLIC_DIR", c.Storage.RenderPublicDir)
	c.Storage.ProjectFile = envOr("PROJECT_FILE", c.Storage.ProjectFile)
	c.Storage.HistoryDB = envOr("HISTORY_DB", c.Storage.HistoryDB)
}

// Validate rejects settings the pipeline cannot honour.
func (c *Config) Validate() error {
	return c.Pipeline.Validate()
}

func (p Pipeline) Validate() error {
	switch {
	case p.MaxWords <= 0:
		return errors.New("pipeline.max_words must be positive")
	case p.MinWords < 0:
		return errors.New("pipeline.min_words must not be negative")
	case p.MinWords > p.MaxWords:
		return fmt.Errorf("pipeline.min_words (%d) exceeds max_words (%d)", p.MinWords, p.MaxWords)
	case p.HighlightLimit < 0:
		return errors.New("pipeline.highlight_limit must not be negative")
	case p.SceneChangeFloor < 0:
		return errors.New("pipeline.scene_change_floor must not be negative")
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return def
}
