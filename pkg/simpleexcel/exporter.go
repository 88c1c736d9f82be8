package simpleexcel

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v2"
)

const (
	SectionTypeFull      = "full"  // title, header and data
	SectionTypeTitleOnly = "title" // title row only
)

// DataExporter builds a workbook out of sheets made of stacked sections.
type DataExporter struct {
	template   *ReportTemplate
	data       map[string]interface{}
	sheets     []*SheetBuilder
	formatters map[string]func(interface{}) interface{}

	styleCache map[string]int
	fieldCache map[fieldCacheKey]int
}

type fieldCacheKey struct {
	Type      reflect.Type
	FieldName string
}

// ReportTemplate is the YAML layout of a workbook.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

type SheetTemplate struct {
	Name     string          `yaml:"name"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig describes one block of rows in a sheet.
type SectionConfig struct {
	ID          string         `yaml:"id"`
	Title       interface{}    `yaml:"title"`
	ColSpan     int            `yaml:"col_span"`
	Data        interface{}    `yaml:"-"`
	Type        string         `yaml:"type"`
	ShowHeader  bool           `yaml:"show_header"`
	TitleStyle  *StyleTemplate `yaml:"title_style"`
	HeaderStyle *StyleTemplate `yaml:"header_style"`
	DataStyle   *StyleTemplate `yaml:"data_style"`
	TitleHeight float64        `yaml:"title_height"`
	HasFilter   bool           `yaml:"has_filter"`
	Columns     []ColumnConfig `yaml:"columns"`
}

// ColumnConfig maps a struct field or map key to a column.
type ColumnConfig struct {
	FieldName     string                        `yaml:"field_name"`
	Header        string                        `yaml:"header"`
	Width         float64                       `yaml:"width"`
	Formatter     func(interface{}) interface{} `yaml:"-"`
	FormatterName string                        `yaml:"formatter"`
}

type StyleTemplate struct {
	Font      *FontTemplate      `yaml:"font"`
	Fill      *FillTemplate      `yaml:"fill"`
	Alignment *AlignmentTemplate `yaml:"alignment"`
}

type FontTemplate struct {
	Bold  bool    `yaml:"bold"`
	Color string  `yaml:"color"`
	Size  float64 `yaml:"size"`
}

type FillTemplate struct {
	Color string `yaml:"color"`
}

type AlignmentTemplate struct {
	Horizontal string `yaml:"horizontal"`
	Vertical   string `yaml:"vertical"`
}

func NewDataExporter() *DataExporter {
	return &DataExporter{
		data:       make(map[string]interface{}),
		sheets:     []*SheetBuilder{},
		formatters: make(map[string]func(interface{}) interface{}),
		styleCache: make(map[string]int),
		fieldCache: make(map[fieldCacheKey]int),
	}
}

// NewDataExporterFromYaml builds the sheet and section layout from a YAML
// template. Section data is bound later with BindSectionData.
func NewDataExporterFromYaml(yamlConfig string) (*DataExporter, error) {
	if strings.TrimSpace(yamlConfig) == "" {
		return nil, fmt.Errorf("yaml config is empty")
	}
	var tmpl ReportTemplate
	if err := yaml.Unmarshal([]byte(yamlConfig), &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	e := NewDataExporter()
	e.template = &tmpl
	for i := range tmpl.Sheets {
		st := &tmpl.Sheets[i]
		sb := &SheetBuilder{exporter: e, name: st.Name, sections: make([]*SectionConfig, len(st.Sections))}
		for j := range st.Sections {
			sb.sections[j] = &st.Sections[j]
		}
		e.sheets = append(e.sheets, sb)
	}
	return e, nil
}

func (e *DataExporter) AddSheet(name string) *SheetBuilder {
	sb := &SheetBuilder{exporter: e, name: name, sections: []*SectionConfig{}}
	e.sheets = append(e.sheets, sb)
	return sb
}

// BindSectionData attaches data to the section with the given ID.
func (e *DataExporter) BindSectionData(id string, data interface{}) *DataExporter {
	e.data[id] = data
	return e
}

// RegisterFormatter makes f available to columns by name.
func (e *DataExporter) RegisterFormatter(name string, f func(interface{}) interface{}) *DataExporter {
	e.formatters[name] = f
	return e
}

func (e *DataExporter) GetSheet(name string) *SheetBuilder {
	for _, sheet := range e.sheets {
		if sheet.name == name {
			return sheet
		}
	}
	return nil
}

// Section returns the first section with the given ID, or nil.
func (e *DataExporter) Section(id string) *SectionConfig {
	for _, sheet := range e.sheets {
		for _, sec := range sheet.sections {
			if sec.ID == id {
				return sec
			}
		}
	}
	return nil
}

// BuildExcel renders every sheet into a new workbook.
func (e *DataExporter) BuildExcel() (*excelize.File, error) {
	if len(e.sheets) == 0 {
		return nil, fmt.Errorf("no sheets to export")
	}

	f := excelize.NewFile()
	for i, sb := range e.sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sb.name); err != nil {
				return nil, err
			}
		} else if idx, _ := f.GetSheetIndex(sb.name); idx == -1 {
			if _, err := f.NewSheet(sb.name); err != nil {
				return nil, err
			}
		}

		for _, sec := range sb.sections {
			if sec.ID == "" {
				continue
			}
			if data, ok := e.data[sec.ID]; ok {
				sec.Data = data
			}
		}
		if err := e.renderSections(f, sb.name, sb.sections); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func (e *DataExporter) ToBytes() ([]byte, error) {
	f, err := e.BuildExcel()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	if _, err := f.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *DataExporter) ToWriter(w io.Writer) error {
	f, err := e.BuildExcel()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

type SheetBuilder struct {
	exporter *DataExporter
	name     string
	sections []*SectionConfig
}

func (sb *SheetBuilder) AddSection(config *SectionConfig) *SheetBuilder {
	sb.sections = append(sb.sections, config)
	return sb
}

func (sb *SheetBuilder) Build() *DataExporter {
	return sb.exporter
}

// renderSections stacks sections vertically, one blank row between them.
func (e *DataExporter) renderSections(f *excelize.File, sheet string, sections []*SectionConfig) error {
	row := 1
	for _, sec := range sections {
		sectionType := sec.Type
		if sectionType == "" {
			sectionType = SectionTypeFull
		}
		sec.Columns = mergeColumns(sec.Data, sec.Columns)

		width := len(sec.Columns)
		if sectionType == SectionTypeTitleOnly && sec.ColSpan > width {
			width = sec.ColSpan
		}
		if width < 1 {
			width = 1
		}

		if sec.Title != nil {
			defaultTitle := &StyleTemplate{
				Font:      &FontTemplate{Bold: true},
				Alignment: &AlignmentTemplate{Horizontal: "center", Vertical: "top"},
			}
			if err := e.writeMerged(f, sheet, row, width, sec.Title, resolveStyle(sec.TitleStyle, defaultTitle)); err != nil {
				return err
			}
			if sec.TitleHeight > 0 {
				if err := f.SetRowHeight(sheet, row, sec.TitleHeight); err != nil {
					return err
				}
			}
			row++
		}
		if sectionType == SectionTypeTitleOnly {
			row++
			continue
		}

		headerRow := row
		if sec.ShowHeader {
			headerStyle := resolveStyle(sec.HeaderStyle, &StyleTemplate{Font: &FontTemplate{Bold: true}})
			styleID, err := e.createStyle(f, headerStyle)
			if err != nil {
				return err
			}
			for i, col := range sec.Columns {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
					return err
				}
				if col.Width > 0 {
					name, _ := excelize.ColumnNumberToName(i + 1)
					if err := f.SetColWidth(sheet, name, name, col.Width); err != nil {
						return err
					}
				}
			}
			row++
		}

		dataStyleID, err := e.createStyle(f, sec.DataStyle)
		if err != nil {
			return err
		}
		items := sliceValue(sec.Data)
		for i := 0; i < items.Len(); i++ {
			item := items.Index(i)
			for j, col := range sec.Columns {
				cell, _ := excelize.CoordinatesToCellName(j+1, row)
				if err := f.SetCellValue(sheet, cell, e.format(col, e.extractValue(item, col.FieldName))); err != nil {
					return err
				}
				if dataStyleID != 0 {
					if err := f.SetCellStyle(sheet, cell, cell, dataStyleID); err != nil {
						return err
					}
				}
			}
			row++
		}

		if sec.HasFilter && sec.ShowHeader && len(sec.Columns) > 0 {
			first, _ := excelize.CoordinatesToCellName(1, headerRow)
			last, _ := excelize.CoordinatesToCellName(len(sec.Columns), row-1)
			if err := f.AutoFilter(sheet, first+":"+last, nil); err != nil {
				return err
			}
		}
		row++
	}
	return nil
}

func (e *DataExporter) writeMerged(f *excelize.File, sheet string, row, width int, value interface{}, style *StyleTemplate) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return err
	}
	styleID, err := e.createStyle(f, style)
	if err != nil {
		return err
	}
	end := cell
	if width > 1 {
		end, _ = excelize.CoordinatesToCellName(width, row)
		if err := f.MergeCell(sheet, cell, end); err != nil {
			return err
		}
	}
	return f.SetCellStyle(sheet, cell, end, styleID)
}

func (e *DataExporter) format(col ColumnConfig, val interface{}) interface{} {
	if col.Formatter != nil {
		return col.Formatter(val)
	}
	if col.FormatterName != "" {
		if fn, ok := e.formatters[col.FormatterName]; ok {
			return fn(val)
		}
	}
	return val
}

// resolveStyle fills the parts of base that are unset from def.
func resolveStyle(base, def *StyleTemplate) *StyleTemplate {
	if base == nil {
		return def
	}
	s := *base
	if def != nil {
		if s.Font == nil {
			s.Font = def.Font
		}
		if s.Fill == nil {
			s.Fill = def.Fill
		}
		if s.Alignment == nil {
			s.Alignment = def.Alignment
		}
	}
	return &s
}

func (e *DataExporter) createStyle(f *excelize.File, tmpl *StyleTemplate) (int, error) {
	if tmpl == nil {
		return 0, nil
	}

	var sb strings.Builder
	if tmpl.Font != nil {
		fmt.Fprintf(&sb, "f:%v:%s:%v|", tmpl.Font.Bold, tmpl.Font.Color, tmpl.Font.Size)
	}
	if tmpl.Fill != nil {
		fmt.Fprintf(&sb, "i:%s|", tmpl.Fill.Color)
	}
	if tmpl.Alignment != nil {
		fmt.Fprintf(&sb, "a:%s:%s|", tmpl.Alignment.Horizontal, tmpl.Alignment.Vertical)
	}
	key := sb.String()
	if id, ok := e.styleCache[key]; ok {
		return id, nil
	}

	style := &excelize.Style{}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
			Size:  tmpl.Font.Size,
		}
	}
	if tmpl.Fill != nil {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	if tmpl.Alignment != nil {
		style.Alignment = &excelize.Alignment{
			Horizontal: tmpl.Alignment.Horizontal,
			Vertical:   tmpl.Alignment.Vertical,
		}
	}
	id, err := f.NewStyle(style)
	if err != nil {
		return 0, err
	}
	e.styleCache[key] = id
	return id, nil
}

func (e *DataExporter) extractValue(item reflect.Value, fieldName string) interface{} {
	if item.Kind() == reflect.Ptr {
		item = item.Elem()
	}
	switch item.Kind() {
	case reflect.Struct:
		key := fieldCacheKey{Type: item.Type(), FieldName: fieldName}
		index, ok := e.fieldCache[key]
		if !ok {
			index = -1
			if f, found := item.Type().FieldByName(fieldName); found && len(f.Index) == 1 {
				index = f.Index[0]
			}
			e.fieldCache[key] = index
		}
		if index >= 0 {
			return item.Field(index).Interface()
		}
	case reflect.Map:
		if v := item.MapIndex(reflect.ValueOf(fieldName)); v.IsValid() {
			return v.Interface()
		}
	}
	return ""
}

func sliceValue(data interface{}) reflect.Value {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return reflect.ValueOf([]interface{}{})
	}
	return v
}

// mergeColumns keeps the configured columns and appends exported fields of
// the data that no column names yet. Configured columns alone win when any
// are given.
func mergeColumns(data interface{}, configured []ColumnConfig) []ColumnConfig {
	if len(configured) > 0 || data == nil {
		return configured
	}
	var cols []ColumnConfig
	for _, field := range detectFields(data) {
		cols = append(cols, ColumnConfig{FieldName: field, Header: field, Width: 20})
	}
	return cols
}

func detectFields(data interface{}) []string {
	v := sliceValue(data)
	if v.Len() == 0 {
		return nil
	}
	elem := v.Index(0)
	for elem.Kind() == reflect.Ptr || elem.Kind() == reflect.Interface {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil
	}
	var fields []string
	t := elem.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath == "" {
			fields = append(fields, t.Field(i).Name)
		}
	}
	return fields
}
