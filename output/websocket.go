package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"

	"github.com/coloranna/openai-realtime-server/model"
)

// Event is the JSON text frame written ahead of each reply.
type Event struct {
	Event      string `json:"event"`
	Outcome    string `json:"outcome,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Bytes      int    `json:"bytes"`
	Error      string `json:"error,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// SocketOutput writes pipeline replies to a WebSocket client.
type SocketOutput struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func NewSocketOutput(ws *websocket.Conn) (*SocketOutput, error) {
	if ws == nil {
		return nil, fmt.Errorf("websocket connection is required")
	}
	return &SocketOutput{ws: ws}, nil
}

// SendReply writes a reply event followed by one binary audio frame. The
// audio frame is skipped when the reply is silent.
func (o *SocketOutput) SendReply(reply *model.Reply) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	ev := Event{
		Event:      "reply",
		Outcome:    string(reply.Outcome),
		Transcript: string(reply.Transcript),
		Bytes:      len(reply.Audio),
	}
	if err := o.ws.WriteJSON(ev); err != nil {
		return fmt.Errorf("write reply event: %w", err)
	}
	if len(reply.Audio) == 0 {
		return nil
	}
	if err := o.ws.WriteMessage(websocket.BinaryMessage, reply.Audio); err != nil {
		return fmt.Errorf("write reply audio: %w", err)
	}
	return nil
}

func (o *SocketOutput) SendError(message, detail string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.ws.WriteJSON(Event{Event: "error", Error: message, Detail: detail}); err != nil {
		log.Printf("output: error event write failed: %v", err)
		return err
	}
	return nil
}

func (o *SocketOutput) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	_ = o.ws.WriteMessage(websocket.CloseMessage, msg)
	o.ws.Close()
}
