// Package pipeline runs the fallback voice reply: transcribe the caller's
// audio, generate a reply, and synthesize it back to speech.
//
// Only intake and transcription failures are returned as errors. Once the
// pipeline has committed to speaking, failures degrade the reply instead: a
// failed generation speaks the apology phrase and a failed synthesis yields
// silence. Reply.Outcome records which of these happened.
package pipeline

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/coloranna/openai-realtime-server/metrics"
	"github.com/coloranna/openai-realtime-server/model"
	"github.com/coloranna/openai-realtime-server/upstream"
)

//go:generate mockgen -source=pipeline.go -destination=mock_pipeline_test.go -package=pipeline

type Transcriber interface {
	Transcribe(ctx context.Context, upload model.AudioUpload) (model.TranscribedText, error)
}

type Generator interface {
	Generate(ctx context.Context, transcript string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Phrases are the canned lines spoken when no generated reply is available.
type Phrases struct {
	NoSpeech string
	Apology  string
}

// Stages that can abort a reply. StageIntake labels failures caused by the
// client's upload rather than a provider.
const (
	StageIntake        = "intake"
	StageTranscription = "transcription"
)

// ErrNoAudio is returned when the upload carries no bytes.
var ErrNoAudio = errors.New("audio upload is empty")

// StageError is a structural failure that aborts the request.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

// Cause lets errors.Cause reach the underlying upstream failure.
func (e *StageError) Cause() error { return e.Err }

func (e *StageError) Unwrap() error { return e.Err }

// Detail returns the root upstream message of err, truncated to limit runes.
func Detail(err error, limit int) string {
	if err == nil {
		return ""
	}
	return upstream.Truncate(errors.Cause(err).Error(), limit)
}

type Pipeline struct {
	transcriber Transcriber
	generator   Generator
	synthesizer Synthesizer
	phrases     Phrases
	metrics     *metrics.Metrics
}

func New(transcriber Transcriber, generator Generator, synthesizer Synthesizer, phrases Phrases, m *metrics.Metrics) (*Pipeline, error) {
	if transcriber == nil || generator == nil || synthesizer == nil {
		return nil, errors.New("transcriber, generator and synthesizer are required")
	}
	if phrases.NoSpeech == "" || phrases.Apology == "" {
		return nil, errors.New("no-speech and apology phrases are required")
	}
	return &Pipeline{
		transcriber: transcriber,
		generator:   generator,
		synthesizer: synthesizer,
		phrases:     phrases,
		metrics:     m,
	}, nil
}

// Reply runs the stages in order. A non-nil error is always a *StageError.
func (p *Pipeline) Reply(ctx context.Context, upload model.AudioUpload) (*model.Reply, error) {
	if len(upload.Data) == 0 {
		return nil, &StageError{Stage: StageIntake, Err: ErrNoAudio}
	}

	start := time.Now()
	raw, err := p.transcriber.Transcribe(ctx, upload)
	p.metrics.ObserveUpstream(StageTranscription, start, err)
	if err != nil {
		return nil, &StageError{Stage: StageTranscription, Err: errors.Wrap(err, "transcribe audio")}
	}

	transcript := model.TranscribedText(strings.TrimSpace(string(raw)))
	reply := &model.Reply{Transcript: transcript}

	if transcript == "" {
		reply.Outcome = model.OutcomeNoSpeech
		reply.Text = p.phrases.NoSpeech
	} else {
		start = time.Now()
		text, err := p.generator.Generate(ctx, string(transcript))
		p.metrics.ObserveUpstream(metrics.StageGeneration, start, err)
		if err != nil {
			log.Printf("pipeline: generation failed, speaking apology: %v", err)
			reply.Outcome = model.OutcomeApology
			reply.Text = p.phrases.Apology
		} else {
			reply.Outcome = model.OutcomeOK
			reply.Text = text
		}
	}

	reply.Audio = p.speak(ctx, reply.Text)
	if len(reply.Audio) == 0 {
		reply.Outcome = model.OutcomeSilent
	}
	p.metrics.RecordReply(string(reply.Outcome))
	return reply, nil
}

// speak never fails: a synthesis error yields an empty buffer.
func (p *Pipeline) speak(ctx context.Context, text string) []byte {
	start := time.Now()
	audio, err := p.synthesizer.Synthesize(ctx, text)
	p.metrics.ObserveUpstream(metrics.StageSynthesis, start, err)
	if err != nil {
		log.Printf("pipeline: synthesis failed, replying with silence: %v", err)
		return []byte{}
	}
	if audio == nil {
		return []byte{}
	}
	return audio
}
