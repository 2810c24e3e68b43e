package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/websocket/v2"

	"github.com/coloranna/openai-realtime-server/model"
	"github.com/coloranna/openai-realtime-server/output"
	"github.com/coloranna/openai-realtime-server/pipeline"
)

// Replier runs one utterance through the voice pipeline.
type Replier interface {
	Reply(ctx context.Context, upload model.AudioUpload) (*model.Reply, error)
}

type clientEvent struct {
	Event       string `json:"event"` // "start", "stop"
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// Session serves one WebSocket client. Every binary frame is an utterance;
// replies are written in the order utterances arrive.
type Session struct {
	ID          string
	ws          *websocket.Conn
	replier     Replier
	out         *output.SocketOutput
	filename    string
	contentType string
	detailLimit int
}

func NewSession(id string, ws *websocket.Conn, replier Replier, defaultFilename string, maxFrameBytes int64, detailLimit int) (*Session, error) {
	if replier == nil {
		return nil, errors.New("replier is required")
	}
	out, err := output.NewSocketOutput(ws)
	if err != nil {
		return nil, err
	}
	if maxFrameBytes > 0 {
		ws.SetReadLimit(maxFrameBytes)
	}
	return &Session{
		ID:          id,
		ws:          ws,
		replier:     replier,
		out:         out,
		filename:    defaultFilename,
		detailLimit: detailLimit,
	}, nil
}

// Run reads frames until the client stops, disconnects or sends a frame
// above the read limit.
func (s *Session) Run(ctx context.Context) {
	defer s.out.Close()

	for {
		msgType, msg, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[%s] call: websocket closed normally", s.ID)
			} else {
				log.Printf("[%s] call: websocket read error: %v", s.ID, err)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			if stop := s.handleEvent(msg); stop {
				return
			}
		case websocket.BinaryMessage:
			if err := s.handleAudio(ctx, msg); err != nil {
				log.Printf("[%s] call: %v", s.ID, err)
				return
			}
		}
	}
}

func (s *Session) handleEvent(msg []byte) bool {
	var ev clientEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		log.Printf("[%s] call: json unmarshal error: %v", s.ID, err)
		_ = s.out.SendError("invalid event", "")
		return false
	}

	switch ev.Event {
	case "start":
		if ev.Filename != "" {
			s.filename = ev.Filename
		}
		s.contentType = ev.ContentType
		log.Printf("[%s] call: stream started filename=%s content_type=%s", s.ID, s.filename, s.contentType)
	case "stop":
		log.Printf("[%s] call: stream stopped", s.ID)
		return true
	default:
		log.Printf("[%s] call: unknown event: %s", s.ID, ev.Event)
	}
	return false
}

func (s *Session) handleAudio(ctx context.Context, data []byte) error {
	reply, err := s.replier.Reply(ctx, model.AudioUpload{
		Data:        data,
		Filename:    s.filename,
		ContentType: s.contentType,
	})
	if err != nil {
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) && stageErr.Stage == pipeline.StageIntake {
			return s.out.SendError("audio frame is empty", "")
		}
		log.Printf("[%s] call: transcription failed: %v", s.ID, err)
		return s.out.SendError("transcription failed", pipeline.Detail(err, s.detailLimit))
	}

	log.Printf("[%s] call: reply outcome=%s bytes=%d", s.ID, reply.Outcome, len(reply.Audio))
	if err := s.out.SendReply(reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}
