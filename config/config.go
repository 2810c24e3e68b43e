package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode selects which HTTP surface the gateway exposes.
type Mode string

const (
	ModeSession  Mode = "session"
	ModeFallback Mode = "fallback"
)

// GenerationAPI selects the upstream text-generation endpoint flavor.
type GenerationAPI string

const (
	GenerationResponses GenerationAPI = "responses"
	GenerationChat      GenerationAPI = "chat"
)

const (
	DefaultPort    = "8787"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultMaxMB   = 15
	// MaxUploadMB bounds MAX_UPLOAD_MB so the byte ceiling and the server
	// body limit stay within int range.
	MaxUploadMB = 1024
)

// OpenAI holds the credentials and transport settings shared by every
// upstream call.
type OpenAI struct {
	APIKey  string
	Project string
	BaseURL string
	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration
}

// Session configures the realtime session minted for the browser.
type Session struct {
	Model        string
	Voice        string
	Instructions string
}

// Pipeline configures the transcribe -> generate -> synthesize fallback.
type Pipeline struct {
	AudioField      string
	MaxUploadBytes  int64
	DefaultFilename string

	TranscriptionModel string
	Language           string

	GenerationAPI   GenerationAPI
	GenerationModel string
	Instructions    string
	MaxOutputTokens int
	Temperature     float32

	SpeechModel string
	SpeechVoice string

	NoSpeechPhrase string
	ApologyPhrase  string
	DefaultReply   string

	// DetailLimit caps how much upstream error text is echoed to callers.
	DetailLimit int
}

type Config struct {
	Port           string
	Mode           Mode
	CORSOrigins    string
	MetricsEnabled bool

	OpenAI   OpenAI
	Session  Session
	Pipeline Pipeline
}

// Default returns a Config populated with every default except the API key.
func Default() Config {
	return Config{
		Port:           DefaultPort,
		Mode:           ModeSession,
		CORSOrigins:    "*",
		MetricsEnabled: true,
		OpenAI: OpenAI{
			BaseURL: DefaultBaseURL,
		},
		Session: Session{
			Model:        "gpt-4o-realtime-preview",
			Voice:        "verse",
			Instructions: "You are a warm, compassionate voice guide. Offer brief, gentle guidance in simple sentences. Never claim medical or legal authority.",
		},
		Pipeline: Pipeline{
			AudioField:         "audio",
			MaxUploadBytes:     DefaultMaxMB << 20,
			DefaultFilename:    "audio.webm",
			TranscriptionModel: "whisper-1",
			GenerationAPI:      GenerationResponses,
			GenerationModel:    "gpt-4o-mini",
			Instructions:       "You are a warm, compassionate voice guide. Answer in one to three short spoken sentences. Never claim medical or legal authority.",
			MaxOutputTokens:    150,
			Temperature:        0.7,
			SpeechModel:        "tts-1",
			SpeechVoice:        "alloy",
			NoSpeechPhrase:     "Sorry, I didn't catch that. Could you say it again?",
			ApologyPhrase:      "Sorry, I'm having trouble answering right now. Please try again in a moment.",
			DefaultReply:       "I'm here with you.",
			DetailLimit:        500,
		},
	}
}

// Load reads the configuration from the process environment. Callers that
// want .env support load it first.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv, which lets tests supply a
// fixed environment.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()

	cfg.OpenAI.APIKey = strings.TrimSpace(getenv("OPENAI_API_KEY"))
	if cfg.OpenAI.APIKey == "" {
		return cfg, fmt.Errorf("OPENAI_API_KEY must be set")
	}
	cfg.OpenAI.Project = firstNonEmpty(getenv("OPENAI_PROJECT_ID"), getenv("OPENAI_PROJECT"))
	setString(&cfg.OpenAI.BaseURL, getenv("OPENAI_BASE_URL"))
	cfg.OpenAI.BaseURL = strings.TrimRight(cfg.OpenAI.BaseURL, "/")

	setString(&cfg.Port, getenv("PORT"))
	setString(&cfg.CORSOrigins, getenv("CORS_ORIGINS"))

	if v := strings.TrimSpace(getenv("GATEWAY_MODE")); v != "" {
		mode := Mode(strings.ToLower(v))
		if mode != ModeSession && mode != ModeFallback {
			return cfg, fmt.Errorf("GATEWAY_MODE: unknown mode %q (want %q or %q)", v, ModeSession, ModeFallback)
		}
		cfg.Mode = mode
	}

	if v := strings.TrimSpace(getenv("REPLY_API")); v != "" {
		api := GenerationAPI(strings.ToLower(v))
		if api != GenerationResponses && api != GenerationChat {
			return cfg, fmt.Errorf("REPLY_API: unknown api %q (want %q or %q)", v, GenerationResponses, GenerationChat)
		}
		cfg.Pipeline.GenerationAPI = api
	}

	var err error
	if cfg.MetricsEnabled, err = parseBool("METRICS_ENABLED", getenv("METRICS_ENABLED"), cfg.MetricsEnabled); err != nil {
		return cfg, err
	}
	if cfg.OpenAI.Timeout, err = parseDuration("UPSTREAM_TIMEOUT", getenv("UPSTREAM_TIMEOUT"), cfg.OpenAI.Timeout); err != nil {
		return cfg, err
	}

	maxMB, err := parsePositiveInt("MAX_UPLOAD_MB", getenv("MAX_UPLOAD_MB"), DefaultMaxMB)
	if err != nil {
		return cfg, err
	}
	if maxMB > MaxUploadMB {
		return cfg, fmt.Errorf("MAX_UPLOAD_MB: must be at most %d, got %d", MaxUploadMB, maxMB)
	}
	cfg.Pipeline.MaxUploadBytes = int64(maxMB) << 20

	if cfg.Pipeline.MaxOutputTokens, err = parsePositiveInt("REPLY_MAX_TOKENS", getenv("REPLY_MAX_TOKENS"), cfg.Pipeline.MaxOutputTokens); err != nil {
		return cfg, err
	}
	if cfg.Pipeline.DetailLimit, err = parsePositiveInt("ERROR_DETAIL_LIMIT", getenv("ERROR_DETAIL_LIMIT"), cfg.Pipeline.DetailLimit); err != nil {
		return cfg, err
	}
	if v := strings.TrimSpace(getenv("REPLY_TEMPERATURE")); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil || t < 0 || t > 2 {
			return cfg, fmt.Errorf("REPLY_TEMPERATURE: invalid value %q", v)
		}
		cfg.Pipeline.Temperature = float32(t)
	}

	setString(&cfg.Session.Model, getenv("REALTIME_MODEL"))
	setString(&cfg.Session.Voice, getenv("REALTIME_VOICE"))
	setString(&cfg.Session.Instructions, getenv("REALTIME_INSTRUCTIONS"))

	setString(&cfg.Pipeline.AudioField, getenv("AUDIO_FIELD"))
	setString(&cfg.Pipeline.TranscriptionModel, getenv("TRANSCRIBE_MODEL"))
	setString(&cfg.Pipeline.Language, getenv("TRANSCRIBE_LANGUAGE"))
	setString(&cfg.Pipeline.GenerationModel, getenv("REPLY_MODEL"))
	setString(&cfg.Pipeline.Instructions, getenv("REPLY_INSTRUCTIONS"))
	setString(&cfg.Pipeline.SpeechModel, getenv("TTS_MODEL"))
	setString(&cfg.Pipeline.SpeechVoice, getenv("TTS_VOICE"))

	return cfg, nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func parseBool(key, raw string, def bool) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("%s: invalid bool %q", key, raw)
	}
	return v, nil
}

func parseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		return def, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return v, nil
}

func parsePositiveInt(key, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def, fmt.Errorf("%s: must be a positive integer, got %q", key, raw)
	}
	return v, nil
}
