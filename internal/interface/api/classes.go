package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/search"
)

type createClassRequest struct {
	Name  string `json:"name" form:"name" validate:"required,max=200"`
	Code  string `json:"code" form:"code" validate:"max=50"`
	Color string `json:"color" form:"color" validate:"max=50"`
}

type addSessionRequest struct {
	Title         string            `json:"title" form:"title" validate:"max=300"`
	Content       string            `json:"content" form:"content" validate:"required"`
	Metadata      map[string]string `json:"metadata" form:"-"`
	AutoSummarize bool              `json:"auto_summarize" form:"auto_summarize"`
}

func (s *Server) listClasses(c *fiber.Ctx) error {
	classes, err := s.deps.DB.ListClasses()
	if err != nil {
		return err
	}
	views := make([]classView, 0, len(classes))
	for i := range classes {
		views = append(views, toClassView(&classes[i], false))
	}
	return c.JSON(fiber.Map{"ok": true, "classes": views})
}

func (s *Server) createClass(c *fiber.Ctx) error {
	var req createClassRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	class, err := s.deps.Agent.CreateClass(req.Name, req.Code, req.Color)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "class": toClassView(class, false)})
}

func (s *Server) getClass(c *fiber.Ctx) error {
	id := c.Params("id")
	class, err := s.deps.DB.GetClass(id)
	if err != nil {
		return err
	}
	if class == nil {
		return errs.E(errs.NotFound, "get class", errs.ErrClassNotFound, id)
	}
	return c.JSON(fiber.Map{"ok": true, "class": toClassView(class, true)})
}

func (s *Server) deleteClass(c *fiber.Ctx) error {
	id := c.Params("id")
	existed, err := s.deps.DB.DeleteClass(id)
	if !existed {
		if err != nil {
			return err
		}
		return errs.E(errs.NotFound, "delete class", errs.ErrClassNotFound, id)
	}
	if err != nil {
		// The rows are gone; report what was left on disk
		return c.Status(fiber.StatusMultiStatus).JSON(fiber.Map{
			"ok":      false,
			"deleted": true,
			"error":   err.Error(),
			"kind":    errs.KindOf(err).String(),
		})
	}
	return c.JSON(fiber.Map{"ok": true, "deleted": true})
}

func (s *Server) addSession(c *fiber.Ctx) error {
	var req addSessionRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	res, err := s.deps.Agent.AddSession(c.UserContext(), c.Params("id"), req.Title, req.Content, req.Metadata, req.AutoSummarize)
	return s.addResult(c, res, err)
}

func (s *Server) getSession(c *fiber.Ctx) error {
	classID, sessionID := c.Params("id"), c.Params("sid")
	sess, err := s.deps.DB.GetSession(classID, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return errs.E(errs.NotFound, "get session", errs.ErrSessionNotFound, classID, sessionID)
	}
	return c.JSON(fiber.Map{"ok": true, "session": toSessionView(sess, true)})
}

func (s *Server) summarize(c *fiber.Ctx) error {
	summary, err := s.deps.Agent.SummarizeSession(c.UserContext(), c.Params("class"), c.Params("session"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "summary": summary})
}

type searchResult struct {
	ClassID   string    `json:"class_id"`
	ClassName string    `json:"class_name"`
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) search(c *fiber.Ctx) error {
	results, err := search.Search(s.deps.DB, search.Filters{
		Query:   c.Query("q"),
		ClassID: c.Query("class_id"),
		Limit:   c.QueryInt("limit", search.DefaultLimit),
	})
	if err != nil {
		return err
	}
	out := make([]searchResult, 0, len(results))
	for _, r := range results {
		out = append(out, searchResult(r))
	}
	return c.JSON(fiber.Map{"ok": true, "results": out})
}

func (s *Server) getSettings(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true, "settings": s.deps.Settings.Get()})
}

func (s *Server) putSettings(c *fiber.Ctx) error {
	var updates map[string]string
	if err := c.BodyParser(&updates); err != nil {
		return errs.Validationf("parse request", "settings must be a flat object of strings: %v", err)
	}
	values, err := s.deps.Settings.Update(updates)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "settings": values})
}
