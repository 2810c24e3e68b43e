package server

import (
	"fmt"

	"github.com/coloranna/openai-realtime-server/config"
	"github.com/coloranna/openai-realtime-server/llm"
	"github.com/coloranna/openai-realtime-server/metrics"
	"github.com/coloranna/openai-realtime-server/pipeline"
	"github.com/coloranna/openai-realtime-server/realtime"
	"github.com/coloranna/openai-realtime-server/stt"
	"github.com/coloranna/openai-realtime-server/tts"
	"github.com/coloranna/openai-realtime-server/upstream"
)

// Deps are the collaborators injected into the HTTP handlers. Only the ones
// needed by the configured mode are set.
type Deps struct {
	Minter   *realtime.Minter
	Pipeline *pipeline.Pipeline
	Metrics  *metrics.Metrics
}

// NewDeps wires the upstream clients for cfg.Mode.
func NewDeps(cfg config.Config) (Deps, error) {
	var deps Deps
	if cfg.MetricsEnabled {
		deps.Metrics = metrics.New("voice_gateway")
	}

	up := upstream.New(cfg.OpenAI)

	switch cfg.Mode {
	case config.ModeSession:
		minter, err := realtime.NewMinter(up, cfg.Session)
		if err != nil {
			return deps, fmt.Errorf("session minter: %w", err)
		}
		deps.Minter = minter

	case config.ModeFallback:
		oai := up.OpenAI()
		p := cfg.Pipeline

		whisper, err := stt.NewWhisperClient(oai, p.TranscriptionModel, p.Language, p.DefaultFilename)
		if err != nil {
			return deps, fmt.Errorf("transcriber: %w", err)
		}
		generator, err := llm.NewOpenAIClient(up, p)
		if err != nil {
			return deps, fmt.Errorf("generator: %w", err)
		}
		speech, err := tts.NewSpeechClient(oai, p.SpeechModel, p.SpeechVoice)
		if err != nil {
			return deps, fmt.Errorf("synthesizer: %w", err)
		}
		deps.Pipeline, err = pipeline.New(whisper, generator, speech, pipeline.Phrases{
			NoSpeech: p.NoSpeechPhrase,
			Apology:  p.ApologyPhrase,
		}, deps.Metrics)
		if err != nil {
			return deps, fmt.Errorf("pipeline: %w", err)
		}

	default:
		return deps, fmt.Errorf("unknown mode %q", cfg.Mode)
	}

	return deps, nil
}
