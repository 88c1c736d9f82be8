package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/logger"
	"github.com/shreyapuff/petalplanner/internal/service"
	"github.com/shreyapuff/petalplanner/internal/service/serviceutils"
)

type TaskHandler struct {
	planner *service.Planner
}

func NewTaskHandler(planner *service.Planner) *TaskHandler {
	return &TaskHandler{planner: planner}
}

type taskView struct {
	domain.Task
	Glyph string `json:"glyph"`
}

type taskListView struct {
	Tasks     []taskView `json:"tasks"`
	Live      bool       `json:"live"`
	FromCache bool       `json:"fromCache"`
}

func toTaskViews(tasks []domain.Task) []taskView {
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskView{Task: t, Glyph: domain.ListGlyph(t)})
	}
	return out
}

type createTaskRequest struct {
	Text string `json:"text"`
}

// ListHandler handles GET /api/v1/tasks
func (h *TaskHandler) ListHandler(c echo.Context) error {
	state := h.planner.State()
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", taskListView{
		Tasks:     toTaskViews(state.Tasks),
		Live:      state.Live,
		FromCache: state.FromCache,
	})
}

// CreateHandler handles POST /api/v1/tasks
func (h *TaskHandler) CreateHandler(c echo.Context) error {
	ctx := c.Request().Context()
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "invalid request body", err)
	}

	res, err := h.planner.AddTask(ctx, req.Text)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadGateway, "failed to save task", err, res)
	}
	if res.Status != service.SubmitCreated {
		return serviceutils.ResponseSuccess(c, http.StatusOK, "task ignored", res)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, "task planted", res)
}

// ToggleHandler handles POST /api/v1/tasks/:id/toggle
func (h *TaskHandler) ToggleHandler(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	toggled, err := h.planner.ToggleTask(ctx, id)
	switch {
	case errors.Is(err, domain.ErrTaskNotFound), errors.Is(err, domain.ErrNotPersisted):
		return serviceutils.ResponseError(c, http.StatusNotFound, "task not found", err)
	case err != nil:
		return serviceutils.ResponseError(c, http.StatusBadGateway, "failed to update task", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", map[string]bool{"toggled": toggled})
}

// SearchHandler handles GET /api/v1/tasks/search?q=&limit=
func (h *TaskHandler) SearchHandler(c echo.Context) error {
	ctx := c.Request().Context()
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	tasks, err := h.planner.Search(ctx, c.QueryParam("q"), limit)
	if err != nil {
		logger.ErrorLog(ctx, "search failed: %v", err)
		return serviceutils.ResponseError(c, http.StatusBadGateway, "search failed", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", toTaskViews(tasks))
}

// StreamHandler handles GET /api/v1/tasks/stream. Each live snapshot is sent
// as a server-sent "tasks" event until the client goes away.
func (h *TaskHandler) StreamHandler(c echo.Context) error {
	ctx := c.Request().Context()
	sub, err := h.planner.Subscribe(ctx)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadGateway, "failed to subscribe", err)
	}
	defer sub.Cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			if snap.Err != nil {
				logger.WarnLog(ctx, "stream delivery failed: %v", snap.Err)
				continue
			}
			payload, err := json.Marshal(toTaskViews(snap.Tasks))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: tasks\ndata: %s\n\n", payload); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
