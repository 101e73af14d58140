// Package importfile reads detection batches for bulk import from CSV, JSON
// or YAML files.
//
// CSV files carry a header row naming the columns. Required columns are
// dataset, start_datetime, end_datetime and label; the optional ones are
// is_box, detector, detector_config, min_frequency, max_frequency,
// confidence_indicator_label, confidence_indicator_level and
// confidence_indicator_default. Datetimes are RFC 3339. Empty cells are
// absent values.
//
// JSON and YAML files hold either a list of rows or an object with a "rows"
// list, using the field names of annotation.ImportRow.
package importfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soundscape-lab/annotator/internal/annotation"
	"github.com/soundscape-lab/annotator/internal/errors"
)

// Format is an input file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const componentImportFile = "importfile"

var requiredColumns = []string{"dataset", "start_datetime", "end_datetime", "label"}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", parseError(fmt.Errorf("unsupported file extension %q", filepath.Ext(path)), 0)
	}
}

// Read decodes all rows from r.
func Read(r io.Reader, format Format) ([]annotation.ImportRow, error) {
	switch format {
	case FormatCSV:
		return readCSV(r)
	case FormatJSON, FormatYAML:
		// YAML is a superset of JSON, one decoder serves both
		return readYAML(r)
	default:
		return nil, parseError(fmt.Errorf("unsupported format %q", format), 0)
	}
}

func readYAML(r io.Reader) ([]annotation.ImportRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, parseError(err, 0)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, parseError(err, 0)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil
	}

	var rows []annotation.ImportRow
	body := root.Content[0]
	if body.Kind == yaml.SequenceNode {
		if err := body.Decode(&rows); err != nil {
			return nil, parseError(err, body.Line)
		}
		return rows, nil
	}

	var doc struct {
		Rows []annotation.ImportRow `yaml:"rows"`
	}
	if err := body.Decode(&doc); err != nil {
		return nil, parseError(err, body.Line)
	}
	return doc.Rows, nil
}

func readCSV(r io.Reader) ([]annotation.ImportRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, parseError(err, 1)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, parseError(fmt.Errorf("missing column %q", name), 1)
		}
	}

	var rows []annotation.ImportRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, parseError(err, line)
		}
		row, err := parseRecord(record, columns)
		if err != nil {
			return nil, parseError(err, line)
		}
		rows = append(rows, row)
	}
}

func parseRecord(record []string, columns map[string]int) (annotation.ImportRow, error) {
	cell := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := annotation.ImportRow{
		Dataset:        cell("dataset"),
		Detector:       cell("detector"),
		DetectorConfig: cell("detector_config"),
		Label:          cell("label"),
	}

	var err error
	if row.IsBox, err = parseBool(cell("is_box")); err != nil {
		return row, fmt.Errorf("is_box: %w", err)
	}
	if row.StartDatetime, err = time.Parse(time.RFC3339Nano, cell("start_datetime")); err != nil {
		return row, fmt.Errorf("start_datetime: %w", err)
	}
	if row.EndDatetime, err = time.Parse(time.RFC3339Nano, cell("end_datetime")); err != nil {
		return row, fmt.Errorf("end_datetime: %w", err)
	}
	if row.MinFrequency, err = parseOptionalFloat(cell("min_frequency")); err != nil {
		return row, fmt.Errorf("min_frequency: %w", err)
	}
	if row.MaxFrequency, err = parseOptionalFloat(cell("max_frequency")); err != nil {
		return row, fmt.Errorf("max_frequency: %w", err)
	}

	if label := cell("confidence_indicator_label"); label != "" {
		ci := &annotation.ConfidenceInput{Label: label}
		if raw := cell("confidence_indicator_level"); raw != "" {
			level, err := strconv.Atoi(raw)
			if err != nil {
				return row, fmt.Errorf("confidence_indicator_level: %w", err)
			}
			ci.Level = &level
		}
		if ci.IsDefault, err = parseBool(cell("confidence_indicator_default")); err != nil {
			return row, fmt.Errorf("confidence_indicator_default: %w", err)
		}
		row.ConfidenceIndicator = ci
	}
	return row, nil
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func parseOptionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseError marks err as a file parsing failure. line is 1-based; 0 means
// the whole file.
func parseError(err error, line int) error {
	b := errors.New(err).
		Component(componentImportFile).
		Category(errors.CategoryFileParsing)
	if line > 0 {
		b = b.Context("line", line)
	}
	return b.Build()
}
