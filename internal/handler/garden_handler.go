package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shreyapuff/petalplanner/internal/export"
	"github.com/shreyapuff/petalplanner/internal/logger"
	"github.com/shreyapuff/petalplanner/internal/service"
	"github.com/shreyapuff/petalplanner/internal/service/serviceutils"
)

type GardenHandler struct {
	planner      *service.Planner
	templatePath string
}

func NewGardenHandler(planner *service.Planner, templatePath string) *GardenHandler {
	return &GardenHandler{planner: planner, templatePath: templatePath}
}

// GardenHandler handles GET /api/v1/garden
func (h *GardenHandler) GardenHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", h.planner.Garden())
}

// ExportHandler handles GET /api/v1/garden/export
func (h *GardenHandler) ExportHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var buf bytes.Buffer
	if err := export.WriteGarden(ctx, &buf, h.templatePath, h.planner.Tasks()); err != nil {
		logger.ErrorLog(ctx, "garden export failed: %v", err)
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to generate Excel file", err)
	}

	filename := fmt.Sprintf("garden_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentType, export.ContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(buf.Len()))
	c.Response().WriteHeader(http.StatusOK)

	_, err := c.Response().Write(buf.Bytes())
	return err
}
