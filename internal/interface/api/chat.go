package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/neilberkman/lectern/internal/core/llm"
)

type chatRequest struct {
	Question string   `json:"question" form:"question" validate:"required"`
	Stream   bool     `json:"stream" form:"stream"`
	ClassIDs []string `json:"class_ids" form:"class_ids"`
}

func (s *Server) chatClass(c *fiber.Ctx) error {
	var req chatRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	classID := c.Params("class")

	if req.Stream || c.QueryBool("stream") {
		return s.stream(c, func(ctx context.Context) (*llm.Stream, error) {
			return s.deps.Agent.AskQuestionStream(ctx, classID, req.Question)
		})
	}
	answer, err := s.deps.Agent.AskQuestion(c.UserContext(), classID, req.Question)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "answer": answer})
}

func (s *Server) chatAll(c *fiber.Ctx) error {
	var req chatRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	if req.Stream || c.QueryBool("stream") {
		return s.stream(c, func(ctx context.Context) (*llm.Stream, error) {
			return s.deps.Agent.AskAcrossClassesStream(ctx, req.Question, req.ClassIDs)
		})
	}
	answer, err := s.deps.Agent.AskAcrossClasses(c.UserContext(), req.Question, req.ClassIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "answer": answer})
}

// stream opens the answer stream before any header is written, so request
// errors still get a proper status. Once streaming, fragments go out as
// "chunk" events followed by one "done" or "error" event. A failed write
// means the client left; closing the stream aborts the model request.
func (s *Server) stream(c *fiber.Ctx, open func(ctx context.Context) (*llm.Stream, error)) error {
	st, err := open(s.baseCtx)
	if err != nil {
		return err
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer st.Close()

		var n int
		err := llm.TextOnly(st, func(text string) error {
			n += len(text)
			return sendEvent(w, "chunk", fiber.Map{"text": text})
		})
		if err != nil {
			log.Printf("[api] stream ended early after %d bytes: %v", n, err)
			_ = sendEvent(w, "error", fiber.Map{"error": err.Error()})
			return
		}
		_ = sendEvent(w, "done", fiber.Map{"ok": true})
	})
	return nil
}

func sendEvent(w *bufio.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}
