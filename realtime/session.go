package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coloranna/openai-realtime-server/config"
	"github.com/coloranna/openai-realtime-server/upstream"
)

type sessionRequest struct {
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	Instructions string `json:"instructions,omitempty"`
}

// Minter requests ephemeral realtime sessions for browser clients.
type Minter struct {
	Client  *upstream.Client
	Session config.Session
}

func NewMinter(client *upstream.Client, session config.Session) (*Minter, error) {
	if client == nil {
		return nil, fmt.Errorf("upstream client is required")
	}
	if session.Model == "" {
		return nil, fmt.Errorf("realtime model is required")
	}
	return &Minter{Client: client, Session: session}, nil
}

// Mint creates one realtime session and returns the provider's JSON body
// untouched. A non-success answer is returned as *upstream.APIError whose
// Body is the provider's error payload.
func (m *Minter) Mint(ctx context.Context) (json.RawMessage, error) {
	body, err := m.Client.PostJSON(ctx, "/realtime/sessions", sessionRequest{
		Model:        m.Session.Model,
		Voice:        m.Session.Voice,
		Instructions: m.Session.Instructions,
	})
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("realtime session response is not JSON: %s", upstream.Truncate(string(body), 200))
	}
	return json.RawMessage(body), nil
}
