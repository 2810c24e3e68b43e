package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coloranna/openai-realtime-server/config"
	"github.com/coloranna/openai-realtime-server/upstream"
)

func newTestSpeechClient(t *testing.T, handler http.HandlerFunc) *SpeechClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	up := upstream.New(config.OpenAI{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	client, err := NewSpeechClient(up.OpenAI(), "tts-1", "alloy")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	audio := []byte{0xFF, 0xFB, 0x90, 0x64, 0x00}
	client := newTestSpeechClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req["model"] != "tts-1" || req["voice"] != "alloy" || req["input"] != "Hello." {
			t.Errorf("unexpected request %v", req)
		}
		if req["response_format"] != "mp3" {
			t.Errorf("unexpected format %v", req["response_format"])
		}
		w.Header().Set("Content-Type", ContentType)
		_, _ = w.Write(audio)
	})

	got, err := client.Synthesize(context.Background(), "Hello.")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Fatalf("unexpected audio %v", got)
	}
}

func TestSynthesizeUpstreamError(t *testing.T) {
	t.Parallel()

	client := newTestSpeechClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"speech unavailable","type":"server_error"}}`))
	})

	if _, err := client.Synthesize(context.Background(), "Hello."); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSpeechClientValidates(t *testing.T) {
	up := upstream.New(config.OpenAI{APIKey: "k"})
	if _, err := NewSpeechClient(nil, "tts-1", "alloy"); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewSpeechClient(up.OpenAI(), "", "alloy"); err == nil {
		t.Fatal("expected error for empty model")
	}
	if _, err := NewSpeechClient(up.OpenAI(), "tts-1", ""); err == nil {
		t.Fatal("expected error for empty voice")
	}
}
