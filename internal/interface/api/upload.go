package api

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/neilberkman/lectern/internal/core/agent"
	"github.com/neilberkman/lectern/internal/core/errs"
)

type uploadRequest struct {
	ClassID       string `form:"class_id" validate:"required"`
	Title         string `form:"title" validate:"max=300"`
	Language      string `form:"language" validate:"omitempty,alpha,min=2,max=3"`
	AutoSummarize *bool  `form:"auto_summarize"`
}

// upload ingests a multipart recording or document. The file keeps its
// original name so the default title and archive name come from it.
func (s *Server) upload(c *fiber.Ctx) error {
	var req uploadRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return errs.Validationf("upload", "file is required")
	}

	name := filepath.Base(fh.Filename)
	if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, ".") {
		return errs.Validationf("upload", "invalid file name %q", fh.Filename)
	}
	if !agent.Supported(name) {
		return errs.Validationf("upload", "unsupported file type %q", filepath.Ext(name))
	}

	dir, err := os.MkdirTemp(s.deps.UploadDir, "upload-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	if err := c.SaveFile(fh, path); err != nil {
		return err
	}

	autoSummarize := true
	if req.AutoSummarize != nil {
		autoSummarize = *req.AutoSummarize
	}
	res, err := s.deps.Agent.Ingest(c.UserContext(), req.ClassID, path, req.Title, strings.ToLower(req.Language), autoSummarize)
	return s.addResult(c, res, err)
}

// addResult reports a stored session. A summary failure after the session
// was stored still answers 201, with the failure attached.
func (s *Server) addResult(c *fiber.Ctx, res *agent.AddResult, err error) error {
	if res == nil {
		return err
	}
	body := fiber.Map{
		"ok":      err == nil,
		"session": toSessionView(res.Session, false),
	}
	if res.Summary != "" {
		body["summary"] = res.Summary
	}
	if err != nil {
		body["error"] = err.Error()
		body["kind"] = errs.KindOf(err).String()
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}
