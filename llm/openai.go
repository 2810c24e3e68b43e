package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/coloranna/openai-realtime-server/config"
	"github.com/coloranna/openai-realtime-server/upstream"
)

type OpenAIClient struct {
	Client             *upstream.Client
	API                config.GenerationAPI
	Model              string
	SystemInstructions string
	MaxOutputTokens    int
	Temperature        float32
	DefaultReply       string
}

func NewOpenAIClient(client *upstream.Client, cfg config.Pipeline) (*OpenAIClient, error) {
	if client == nil {
		return nil, fmt.Errorf("upstream client is required")
	}
	if cfg.GenerationModel == "" {
		return nil, fmt.Errorf("model is required")
	}
	api := cfg.GenerationAPI
	if api == "" {
		api = config.GenerationResponses
	}
	return &OpenAIClient{
		Client:             client,
		API:                api,
		Model:              cfg.GenerationModel,
		SystemInstructions: cfg.Instructions,
		MaxOutputTokens:    cfg.MaxOutputTokens,
		Temperature:        cfg.Temperature,
		DefaultReply:       cfg.DefaultReply,
	}, nil
}

type responsesRequest struct {
	Model           string  `json:"model"`
	Instructions    string  `json:"instructions,omitempty"`
	Input           string  `json:"input"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"`
	Temperature     float32 `json:"temperature"`
}

// Generate sends the transcript to the configured generation endpoint and
// returns the reply text, or DefaultReply when the response carries none.
func (c *OpenAIClient) Generate(ctx context.Context, transcript string) (string, error) {
	var (
		reply string
		err   error
	)
	if c.API == config.GenerationChat {
		reply, err = c.generateChat(ctx, transcript)
	} else {
		reply, err = c.generateResponse(ctx, transcript)
	}
	if err != nil {
		return "", fmt.Errorf("generation: %w", err)
	}

	if reply == "" {
		log.Printf("llm: no reply text in %s response, using default", c.API)
		return c.DefaultReply, nil
	}
	return reply, nil
}

func (c *OpenAIClient) generateChat(ctx context.Context, transcript string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if c.SystemInstructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.SystemInstructions,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: transcript,
	})

	resp, err := c.Client.OpenAI().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.Model,
		Messages:    messages,
		MaxTokens:   c.MaxOutputTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) generateResponse(ctx context.Context, transcript string) (string, error) {
	body, err := c.Client.PostJSON(ctx, "/responses", responsesRequest{
		Model:           c.Model,
		Instructions:    c.SystemInstructions,
		Input:           transcript,
		MaxOutputTokens: c.MaxOutputTokens,
		Temperature:     c.Temperature,
	})
	if err != nil {
		return "", err
	}
	if !json.Valid(body) {
		return "", fmt.Errorf("response is not JSON: %s", upstream.Truncate(string(body), 200))
	}
	return ExtractReply(body, ""), nil
}
