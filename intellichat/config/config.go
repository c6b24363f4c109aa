package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr string `yaml:"addr"`

	// Generative API (text + vision models).
	GenAIAPIKey  string `yaml:"-"`
	GenAIBaseURL string `yaml:"genai_base_url"`
	TextModel    string `yaml:"text_model"`
	VisionModel  string `yaml:"vision_model"`

	// Speech-to-text service.
	SpeechAPIKey  string `yaml:"-"`
	SpeechBaseURL string `yaml:"speech_base_url"`
	SpeechModel   string `yaml:"speech_model"`

	// Attachment limits.
	MaxAttachmentChars int           `yaml:"max_attachment_chars"`
	MaxImageBytes      int64         `yaml:"max_image_bytes"`
	ImageFetchTimeout  time.Duration `yaml:"image_fetch_timeout"`

	// Session lifecycle.
	SessionTTL   time.Duration `yaml:"session_ttl"`
	ReapInterval time.Duration `yaml:"reap_interval"`
}

func defaults() Config {
	return Config{
		Addr:               ":8000",
		GenAIBaseURL:       "https://generativelanguage.googleapis.com/v1beta",
		TextModel:          "gemini-pro",
		VisionModel:        "gemini-pro-vision",
		SpeechBaseURL:      "https://api.openai.com/v1",
		SpeechModel:        "whisper-1",
		MaxAttachmentChars: 5000,
		MaxImageBytes:      8 << 20,
		ImageFetchTimeout:  15 * time.Second,
		SessionTTL:         30 * time.Minute,
		ReapInterval:       5 * time.Minute,
	}
}

// LoadConfig builds the runtime configuration: defaults, then an optional
// YAML file (CONFIG_FILE, default ./intellichat.yaml), then environment
// variables. A .env file is honored when present. The generative API key
// is a required startup precondition.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	path := getEnv("CONFIG_FILE", "intellichat.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.GenAIAPIKey = getEnv("GENAI_API_KEY", "")
	cfg.GenAIBaseURL = getEnv("GENAI_BASE_URL", cfg.GenAIBaseURL)
	cfg.TextModel = getEnv("TEXT_MODEL", cfg.TextModel)
	cfg.VisionModel = getEnv("VISION_MODEL", cfg.VisionModel)
	cfg.SpeechAPIKey = getEnv("SPEECH_API_KEY", "")
	cfg.SpeechBaseURL = getEnv("SPEECH_BASE_URL", cfg.SpeechBaseURL)
	cfg.SpeechModel = getEnv("SPEECH_MODEL", cfg.SpeechModel)

	if v := os.Getenv("MAX_ATTACHMENT_CHARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("MAX_ATTACHMENT_CHARS: %w", err)
		}
		cfg.MaxAttachmentChars = n
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}

	if cfg.GenAIAPIKey == "" {
		return Config{}, fmt.Errorf("GENAI_API_KEY is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}
