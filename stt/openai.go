package stt

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/coloranna/openai-realtime-server/model"
)

// extensions the transcription endpoint recognises, keyed by media type.
var knownExtensions = map[string]string{
	"audio/webm":   ".webm",
	"audio/ogg":    ".ogg",
	"audio/wav":    ".wav",
	"audio/x-wav":  ".wav",
	"audio/wave":   ".wav",
	"audio/mpeg":   ".mp3",
	"audio/mp3":    ".mp3",
	"audio/mp4":    ".m4a",
	"audio/x-m4a":  ".m4a",
	"audio/aac":    ".m4a",
	"audio/flac":   ".flac",
	"audio/x-flac": ".flac",
	"video/webm":   ".webm",
	"video/mp4":    ".mp4",
}

type WhisperClient struct {
	Client          *openai.Client
	Model           string
	Language        string
	DefaultFilename string
}

func NewWhisperClient(client *openai.Client, modelName string, language string, defaultFilename string) (*WhisperClient, error) {
	if client == nil {
		return nil, fmt.Errorf("openai client is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("transcription model is required")
	}
	if defaultFilename == "" {
		defaultFilename = "audio.webm"
	}
	return &WhisperClient{
		Client:          client,
		Model:           modelName,
		Language:        language,
		DefaultFilename: defaultFilename,
	}, nil
}

// Transcribe sends the uploaded audio to the transcription endpoint and
// returns the raw transcript text.
func (w *WhisperClient) Transcribe(ctx context.Context, upload model.AudioUpload) (model.TranscribedText, error) {
	if len(upload.Data) == 0 {
		return "", fmt.Errorf("audio data is empty")
	}

	resp, err := w.Client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.Model,
		FilePath: UploadFilename(upload, w.DefaultFilename),
		Reader:   bytes.NewReader(upload.Data),
		Language: w.Language,
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return model.TranscribedText(resp.Text), nil
}

// UploadFilename returns a filename whose extension tells the provider the
// container format. The extension is derived from the content type when the
// client did not send one.
func UploadFilename(upload model.AudioUpload, fallback string) string {
	name := filepath.Base(strings.TrimSpace(upload.Filename))
	if name == "." || name == "/" || name == "" {
		name = ""
	}
	if name != "" && filepath.Ext(name) != "" {
		return name
	}

	ext := extensionFor(upload.ContentType)
	if name == "" {
		if ext == "" {
			return fallback
		}
		return strings.TrimSuffix(fallback, filepath.Ext(fallback)) + ext
	}
	if ext == "" {
		ext = filepath.Ext(fallback)
	}
	return name + ext
}

func extensionFor(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return knownExtensions[strings.ToLower(mediaType)]
}
