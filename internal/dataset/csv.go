// Package dataset reads and writes labeled flow feature tables.
package dataset

import (
	"FlowSentinel/internal/model"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Load reads a CSV table whose header holds exactly the feature columns and
// the label column, in any order. Rows are returned with features in
// model.FeatureNames order. An input with a header and no rows yields an
// empty slice; callers decide whether that is an error.
func Load(r io.Reader) ([]model.LabeledSample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, model.ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	columns, labelColumn, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var samples []model.LabeledSample
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				return nil, &model.SchemaMismatchError{Row: row, Got: len(record) - 1, Want: model.NumFeatures}
			}
			return nil, fmt.Errorf("failed to read dataset row %d: %w", row, err)
		}

		features := make([]float64, model.NumFeatures)
		for i, col := range columns {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &model.SchemaMismatchError{
					Row: row, Column: model.FeatureNames[i], Got: model.NumFeatures, Want: model.NumFeatures,
					Reason: fmt.Sprintf("invalid number %q", record[col]),
				}
			}
			features[i] = v
		}

		label, err := parseLabel(record[labelColumn])
		if err != nil {
			return nil, &model.SchemaMismatchError{
				Row: row, Column: model.LabelColumn, Got: model.NumFeatures, Want: model.NumFeatures,
				Reason: err.Error(),
			}
		}
		samples = append(samples, model.LabeledSample{Features: features, Label: label})
	}
	return samples, nil
}

// LoadFile opens, parses and closes a dataset file.
func LoadFile(filePath string) ([]model.LabeledSample, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// mapHeader returns, for each feature in model.FeatureNames order, the index
// of its column, plus the index of the label column.
func mapHeader(header []string) ([]int, int, error) {
	want := model.NumFeatures + 1
	if len(header) != want {
		return nil, 0, &model.SchemaMismatchError{Row: -1, Got: len(header) - 1, Want: model.NumFeatures, Reason: fmt.Sprintf("header %v", header)}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; dup {
			return nil, 0, &model.SchemaMismatchError{Row: -1, Column: name, Got: model.NumFeatures, Want: model.NumFeatures, Reason: "duplicate column"}
		}
		index[name] = i
	}

	columns := make([]int, model.NumFeatures)
	for i, name := range model.FeatureNames {
		col, ok := index[name]
		if !ok {
			return nil, 0, &model.SchemaMismatchError{Row: -1, Column: name, Got: model.NumFeatures, Want: model.NumFeatures, Reason: "missing column"}
		}
		columns[i] = col
	}
	labelColumn, ok := index[model.LabelColumn]
	if !ok {
		return nil, 0, &model.SchemaMismatchError{Row: -1, Column: model.LabelColumn, Got: model.NumFeatures, Want: model.NumFeatures, Reason: "missing column"}
	}
	return columns, labelColumn, nil
}

// parseLabel accepts 0 and 1, also written as floats ("1.0").
func parseLabel(raw string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid label %q", raw)
	}
	switch v {
	case 0:
		return model.LabelBenign, nil
	case 1:
		return model.LabelMalicious, nil
	default:
		return 0, fmt.Errorf("label %q is not 0 or 1", raw)
	}
}

// Write emits samples with the same header Load expects.
func Write(w io.Writer, samples []model.LabeledSample) error {
	writer := csv.NewWriter(w)
	header := append(model.FeatureNames[:], model.LabelColumn)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write dataset header: %w", err)
	}
	record := make([]string, len(header))
	for i, s := range samples {
		if len(s.Features) != model.NumFeatures {
			return &model.SchemaMismatchError{Row: i, Got: len(s.Features), Want: model.NumFeatures}
		}
		for j, v := range s.Features {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		record[model.NumFeatures] = strconv.Itoa(s.Label)
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write dataset row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
