package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/coloranna/openai-realtime-server/call"
	"github.com/coloranna/openai-realtime-server/config"
	"github.com/coloranna/openai-realtime-server/model"
	"github.com/coloranna/openai-realtime-server/pipeline"
	"github.com/coloranna/openai-realtime-server/tts"
	"github.com/coloranna/openai-realtime-server/upstream"
)

type handlers struct {
	cfg  config.Config
	deps Deps
}

func (h *handlers) liveness(c *fiber.Ctx) error {
	c.Type("txt")
	return c.SendString(livenessText(h.cfg.Mode))
}

// GET /session relays a freshly minted realtime session to the browser.
func (h *handlers) session(c *fiber.Ctx) error {
	rid := requestID(c)

	body, err := h.deps.Minter.Mint(c.UserContext())
	h.deps.Metrics.RecordSession(err)
	if err != nil {
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) && json.Valid(apiErr.Body) {
			log.Printf("[%s] session: OpenAI session error (status %d): %s", rid, apiErr.Status, upstream.Truncate(string(apiErr.Body), 500))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": json.RawMessage(apiErr.Body)})
		}
		log.Printf("[%s] session: server error: %v", rid, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(body)
}

// POST /reply runs the uploaded audio through the fallback pipeline.
func (h *handlers) reply(c *fiber.Ctx) error {
	rid := requestID(c)
	field := h.cfg.Pipeline.AudioField
	limit := h.cfg.Pipeline.MaxUploadBytes

	fh, err := c.FormFile(field)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("missing audio file in field '%s'", field),
		})
	}
	if fh.Size > limit {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("audio file in field '%s' exceeds %d bytes", field, limit),
		})
	}

	data, err := readFormFile(fh, limit)
	if err != nil {
		log.Printf("[%s] reply: read upload: %v", rid, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("could not read audio file in field '%s'", field),
		})
	}

	reply, err := h.deps.Pipeline.Reply(c.UserContext(), model.AudioUpload{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
	})
	if err != nil {
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) && stageErr.Stage == pipeline.StageIntake {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("audio file in field '%s' is empty", field),
			})
		}
		log.Printf("[%s] reply: %v", rid, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "transcription failed",
			"detail": pipeline.Detail(err, h.cfg.Pipeline.DetailLimit),
		})
	}

	log.Printf("[%s] reply: outcome=%s transcript_chars=%d bytes=%d", rid, reply.Outcome, utf8.RuneCountInString(string(reply.Transcript)), len(reply.Audio))
	c.Set(OutcomeHeader, string(reply.Outcome))
	c.Set(fiber.HeaderContentType, tts.ContentType)
	return c.Status(fiber.StatusOK).Send(reply.Audio)
}

// GET /reply/ws serves the pipeline over a WebSocket, one utterance per
// binary frame.
func (h *handlers) replySocket(ws *websocket.Conn) {
	rid, _ := ws.Locals(requestIDKey).(string)

	session, err := call.NewSession(rid, ws, h.deps.Pipeline, h.cfg.Pipeline.DefaultFilename, h.cfg.Pipeline.MaxUploadBytes, h.cfg.Pipeline.DetailLimit)
	if err != nil {
		log.Printf("[%s] call: %v", rid, err)
		ws.Close()
		return
	}
	log.Printf("[%s] call: websocket connected", rid)
	session.Run(context.Background())
}

func readFormFile(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}
