package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/logger"
	"github.com/shreyapuff/petalplanner/pkg/simpleexcel"
)

const (
	SectionSummary = "garden_summary"
	SectionFlowers = "garden_flowers"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DefaultGardenTemplate is used when no template file is configured.
const DefaultGardenTemplate = `
sheets:
  - name: Garden
    sections:
      - id: garden_summary
        type: title
        col_span: 4
        title_height: 24
        title_style:
          font: {bold: true, size: 14, color: "#2E7D32"}
          alignment: {horizontal: center, vertical: center}
      - id: garden_flowers
        show_header: true
        has_filter: true
        header_style:
          font: {bold: true}
          fill: {color: "#E8F5E9"}
        columns:
          - {field_name: Glyph, header: Flower, width: 10}
          - {field_name: Task, header: Task, width: 40}
          - {field_name: Mood, header: Mood, width: 10}
          - {field_name: PlantedAt, header: Planted, width: 22, formatter: timestamp}
`

// GardenRow is one flower in the exported sheet.
type GardenRow struct {
	Glyph     string
	Task      string
	Mood      string
	PlantedAt time.Time
}

// GardenRows projects tasks into rows in garden order.
func GardenRows(tasks []domain.Task) []GardenRow {
	byID := make(map[string]domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	garden := domain.ProjectGarden(tasks)
	rows := make([]GardenRow, 0, len(garden.Flowers))
	for _, fl := range garden.Flowers {
		rows = append(rows, GardenRow{
			Glyph:     fl.Glyph,
			Task:      fl.Caption,
			Mood:      string(fl.Mood),
			PlantedAt: byID[fl.TaskID].CreatedAt,
		})
	}
	return rows
}

// LoadTemplate reads a template file, or returns the built-in one when path is empty.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return DefaultGardenTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read garden template: %w", err)
	}
	return string(data), nil
}

// GardenWorkbook lays out the garden of tasks using template. An empty
// garden keeps the summary and shows the empty-state message instead of
// the flower table.
func GardenWorkbook(template string, tasks []domain.Task, now time.Time) (*simpleexcel.DataExporter, error) {
	exporter, err := simpleexcel.NewDataExporterFromYaml(template)
	if err != nil {
		return nil, err
	}
	exporter.RegisterFormatter("timestamp", func(v interface{}) interface{} {
		if t, ok := v.(time.Time); ok && !t.IsZero() {
			return t.UTC().Format("2006-01-02 15:04")
		}
		return ""
	})

	rows := GardenRows(tasks)
	if summary := exporter.Section(SectionSummary); summary != nil {
		summary.Title = fmt.Sprintf("PetalPlanner garden: %d flowers (%s)", len(rows), now.UTC().Format("2006-01-02"))
	}

	flowers := exporter.Section(SectionFlowers)
	if flowers == nil {
		return nil, fmt.Errorf("template has no %s section", SectionFlowers)
	}
	if len(rows) == 0 {
		flowers.Type = simpleexcel.SectionTypeTitleOnly
		flowers.Title = domain.EmptyGardenMessage
		flowers.ColSpan = len(flowers.Columns)
		return exporter, nil
	}
	exporter.BindSectionData(SectionFlowers, rows)
	return exporter, nil
}

// WriteGarden renders the workbook for tasks to w.
func WriteGarden(ctx context.Context, w io.Writer, templatePath string, tasks []domain.Task) error {
	tmpl, err := LoadTemplate(templatePath)
	if err != nil {
		return err
	}
	exporter, err := GardenWorkbook(tmpl, tasks, time.Now())
	if err != nil {
		return err
	}
	if err := exporter.ToWriter(w); err != nil {
		return fmt.Errorf("write garden workbook: %w", err)
	}
	logger.DebugLog(ctx, "exported garden with %d tasks", len(tasks))
	return nil
}
