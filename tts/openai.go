package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// ContentType is the media type of the synthesized audio.
const ContentType = "audio/mpeg"

type SpeechClient struct {
	Client *openai.Client
	Model  string
	Voice  string
}

func NewSpeechClient(client *openai.Client, modelName string, voice string) (*SpeechClient, error) {
	if client == nil {
		return nil, fmt.Errorf("openai client is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("speech model is required")
	}
	if voice == "" {
		return nil, fmt.Errorf("voice is required")
	}
	return &SpeechClient{
		Client: client,
		Model:  modelName,
		Voice:  voice,
	}, nil
}

// Synthesize turns text into mp3 audio with the configured voice.
func (s *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text is empty")
	}

	resp, err := s.Client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	return audio, nil
}
