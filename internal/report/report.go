// Package report computes and renders the held-out evaluation of a trained model.
package report

import (
	"FlowSentinel/internal/model"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// ClassMetrics holds precision, recall and F1 for one class.
type ClassMetrics struct {
	Label     int
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Evaluation is a per-class classification report.
type Evaluation struct {
	Classes     []ClassMetrics
	Accuracy    float64
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
	Total       int
}

// Evaluate compares true and predicted labels. Classes appearing in either
// slice are reported; ratios with a zero denominator are reported as 0.
func Evaluate(yTrue, yPred []int) (Evaluation, error) {
	if len(yTrue) != len(yPred) {
		return Evaluation{}, fmt.Errorf("label slices differ in length: %d vs %d", len(yTrue), len(yPred))
	}

	var tp, fp, fn, support [model.NumClasses]int
	var seen [model.NumClasses]bool
	correct := 0
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= model.NumClasses || p < 0 || p >= model.NumClasses {
			return Evaluation{}, fmt.Errorf("label out of range at row %d: true=%d predicted=%d", i, t, p)
		}
		seen[t], seen[p] = true, true
		support[t]++
		if t == p {
			tp[t]++
			correct++
		} else {
			fp[p]++
			fn[t]++
		}
	}

	e := Evaluation{Total: len(yTrue)}
	if e.Total > 0 {
		e.Accuracy = float64(correct) / float64(e.Total)
	}

	for c := 0; c < model.NumClasses; c++ {
		if !seen[c] {
			continue
		}
		m := ClassMetrics{
			Label:     c,
			Precision: ratio(tp[c], tp[c]+fp[c]),
			Recall:    ratio(tp[c], tp[c]+fn[c]),
			Support:   support[c],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		e.Classes = append(e.Classes, m)
	}

	if n := len(e.Classes); n > 0 {
		for _, m := range e.Classes {
			e.MacroAvg.Precision += m.Precision / float64(n)
			e.MacroAvg.Recall += m.Recall / float64(n)
			e.MacroAvg.F1 += m.F1 / float64(n)
			if e.Total > 0 {
				w := float64(m.Support) / float64(e.Total)
				e.WeightedAvg.Precision += m.Precision * w
				e.WeightedAvg.Recall += m.Recall * w
				e.WeightedAvg.F1 += m.F1 * w
			}
		}
		e.MacroAvg.Support = e.Total
		e.WeightedAvg.Support = e.Total
	}
	return e, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Render writes the evaluation as a table.
func Render(w io.Writer, e Evaluation) {
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Class", "Precision", "Recall", "F1-Score", "Support"})
	t.SetAutoWrapText(false)
	t.SetRowLine(false)

	for _, m := range e.Classes {
		t.Append(row(fmt.Sprintf("%d (%s)", m.Label, model.LabelName(m.Label)), m))
	}
	t.Append([]string{"accuracy", "", "", fmt.Sprintf("%.2f", e.Accuracy), strconv.Itoa(e.Total)})
	t.Append(row("macro avg", e.MacroAvg))
	t.Append(row("weighted avg", e.WeightedAvg))
	t.Render()
}

func row(name string, m ClassMetrics) []string {
	return []string{
		name,
		fmt.Sprintf("%.2f", m.Precision),
		fmt.Sprintf("%.2f", m.Recall),
		fmt.Sprintf("%.2f", m.F1),
		strconv.Itoa(m.Support),
	}
}
