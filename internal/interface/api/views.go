package api

import (
	"time"

	"github.com/neilberkman/lectern/internal/core/models"
)

type classView struct {
	ClassID       string        `json:"class_id"`
	Name          string        `json:"name"`
	Code          string        `json:"code"`
	Color         string        `json:"color"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	SessionsCount int           `json:"sessions_count"`
	LastSessionAt *time.Time    `json:"last_session_at"`
	Sessions      []sessionView `json:"sessions,omitempty"`
}

type sessionView struct {
	SessionID string            `json:"session_id"`
	ClassID   string            `json:"class_id"`
	Title     string            `json:"title"`
	Content   string            `json:"content,omitempty"`
	Summary   *string           `json:"summary"`
	Insights  *models.Insights  `json:"insights"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func toClassView(c *models.Class, withSessions bool) classView {
	v := classView{
		ClassID:       c.ClassID,
		Name:          c.Name,
		Code:          c.Code,
		Color:         c.Color,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		SessionsCount: c.SessionsCount,
		LastSessionAt: c.LastSessionAt,
	}
	if withSessions {
		v.Sessions = make([]sessionView, 0, len(c.Sessions))
		for i := range c.Sessions {
			// Listings leave the transcript out; fetch a session for it
			v.Sessions = append(v.Sessions, toSessionView(&c.Sessions[i], false))
		}
	}
	return v
}

func toSessionView(s *models.Session, withContent bool) sessionView {
	v := sessionView{
		SessionID: s.SessionID,
		ClassID:   s.ClassID,
		Title:     s.Title,
		Summary:   s.Summary,
		Insights:  s.Insights,
		Metadata:  s.Metadata,
		CreatedAt: s.CreatedAt,
	}
	if withContent {
		v.Content = s.Content
	}
	return v
}
