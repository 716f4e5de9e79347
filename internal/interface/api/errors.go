package api

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/neilberkman/lectern/internal/core/errs"
)

// statusFor maps an error kind to an HTTP status
func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch errs.KindOf(err) {
	case errs.NotFound:
		return fiber.StatusNotFound
	case errs.Validation:
		return fiber.StatusBadRequest
	case errs.NothingToSearch:
		return fiber.StatusUnprocessableEntity
	case errs.Upstream:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		log.Printf("[api] %s %s: %v", c.Method(), c.Path(), err)
	}
	body := fiber.Map{"ok": false, "error": err.Error()}
	if kind := errs.KindOf(err); kind != errs.Unknown {
		body["kind"] = kind.String()
	}
	return c.Status(code).JSON(body)
}

// bind parses the JSON or form body into req and validates it
func (s *Server) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return errs.Validationf("parse request", "invalid request body: %v", err)
	}
	if err := s.validate.Struct(req); err != nil {
		return errs.Validationf("validate request", "%s", formatValidationErrors(err))
	}
	return nil
}

func formatValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
