package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/service"
	"github.com/shreyapuff/petalplanner/internal/service/serviceutils"
)

type MoodHandler struct {
	planner *service.Planner
}

func NewMoodHandler(planner *service.Planner) *MoodHandler {
	return &MoodHandler{planner: planner}
}

type moodView struct {
	Mood    domain.Mood   `json:"mood"`
	Flower  string        `json:"flower"`
	Choices []domain.Mood `json:"choices"`
}

type selectMoodRequest struct {
	Mood string `json:"mood"`
}

func (h *MoodHandler) view() moodView {
	m := h.planner.Mood()
	return moodView{Mood: m, Flower: domain.FlowerFor(m), Choices: domain.Moods()}
}

// GetHandler handles GET /api/v1/mood
func (h *MoodHandler) GetHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", h.view())
}

// SelectHandler handles PUT /api/v1/mood
func (h *MoodHandler) SelectHandler(c echo.Context) error {
	ctx := c.Request().Context()
	var req selectMoodRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "invalid request body", err)
	}

	if err := h.planner.SelectMood(ctx, req.Mood); err != nil {
		if errors.Is(err, domain.ErrUnknownMood) {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "unknown mood", err)
		}
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "failed to save mood", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "mood updated", h.view())
}
