package dataset

import (
	"FlowSentinel/internal/model"
	"fmt"
	"io"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
)

// ColumnSummary describes the distribution of one feature column.
type ColumnSummary struct {
	Name   string
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summary describes a loaded dataset.
type Summary struct {
	Rows        int
	ClassCounts [model.NumClasses]int
	Columns     []ColumnSummary
}

// Describe computes per-column statistics and class counts.
func Describe(samples []model.LabeledSample) (Summary, error) {
	s := Summary{Rows: len(samples)}
	if len(samples) == 0 {
		return s, model.ErrEmptyDataset
	}

	for _, sample := range samples {
		if sample.Label >= 0 && sample.Label < model.NumClasses {
			s.ClassCounts[sample.Label]++
		}
	}

	column := make(stats.Float64Data, len(samples))
	for j, name := range model.FeatureNames {
		for i, sample := range samples {
			if len(sample.Features) != model.NumFeatures {
				return s, &model.SchemaMismatchError{Row: i, Got: len(sample.Features), Want: model.NumFeatures}
			}
			column[i] = sample.Features[j]
		}

		var c ColumnSummary
		var err error
		c.Name = name
		if c.Mean, err = column.Mean(); err != nil {
			return s, fmt.Errorf("mean of %s: %w", name, err)
		}
		if c.Median, err = column.Median(); err != nil {
			return s, fmt.Errorf("median of %s: %w", name, err)
		}
		if len(samples) > 1 {
			if c.StdDev, err = column.StandardDeviationSample(); err != nil {
				return s, fmt.Errorf("stddev of %s: %w", name, err)
			}
		}
		if c.Min, err = column.Min(); err != nil {
			return s, fmt.Errorf("min of %s: %w", name, err)
		}
		if c.Max, err = column.Max(); err != nil {
			return s, fmt.Errorf("max of %s: %w", name, err)
		}
		s.Columns = append(s.Columns, c)
	}
	return s, nil
}

// Render writes the summary as a table.
func (s Summary) Render(w io.Writer) {
	fmt.Fprintf(w, "Dataset rows: %d\n", s.Rows)
	fmt.Fprintf(w, "Benign samples (0): %d\n", s.ClassCounts[model.LabelBenign])
	fmt.Fprintf(w, "Malicious samples (1): %d\n", s.ClassCounts[model.LabelMalicious])

	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Feature", "Mean", "Median", "StdDev", "Min", "Max"})
	t.SetAutoWrapText(false)
	for _, c := range s.Columns {
		t.Append([]string{
			c.Name,
			fmt.Sprintf("%.2f", c.Mean),
			fmt.Sprintf("%.2f", c.Median),
			fmt.Sprintf("%.2f", c.StdDev),
			fmt.Sprintf("%.2f", c.Min),
			fmt.Sprintf("%.2f", c.Max),
		})
	}
	t.Render()
}
