// Package report accumulates findings from every validator layer and renders
// the final verdict. Reports over identical inputs must be byte-identical,
// so findings are sorted into a stable order before rendering.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Verdict is the overall pass/fail outcome of one validation run.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// Report is the ordered sequence of findings from one run plus rollup
// counts. It is created per run and discarded after rendering.
type Report struct {
	Findings []Finding `json:"findings"`
	Fatal    bool      `json:"fatal"`
}

// New creates an empty report.
func New() *Report {
	return &Report{Findings: make([]Finding, 0)}
}

// Add appends findings to the report.
func (r *Report) Add(findings ...Finding) {
	r.Findings = append(r.Findings, findings...)
}

// MarkFatal records that the run reached a non-recoverable structural
// failure. A fatal run always fails regardless of finding severities.
func (r *Report) MarkFatal() {
	r.Fatal = true
}

// Count returns the number of findings at the given severity.
func (r *Report) Count(severity Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == severity {
			n++
		}
	}

	return n
}

// CountByCategory returns per-category finding counts.
func (r *Report) CountByCategory() map[Category]int {
	counts := make(map[Category]int)
	for _, f := range r.Findings {
		counts[f.Category]++
	}

	return counts
}

// Verdict computes the overall outcome: fail if the run went fatal or any
// error-severity finding was recorded, pass otherwise.
func (r *Report) Verdict() Verdict {
	if r.Fatal || r.Count(SeverityError) > 0 {
		return VerdictFail
	}

	return VerdictPass
}

// Sort orders findings deterministically: by file, line, severity
// (errors first), category, then message. Two runs over identical inputs
// render byte-identical reports regardless of emission order.
func (r *Report) Sort() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}

		return a.Message < b.Message
	})
}

// WriteText renders the human-readable report.
func (r *Report) WriteText(w io.Writer) error {
	r.Sort()

	sections := []struct {
		severity Severity
		header   string
		mark     string
	}{
		{SeverityError, "ERRORS:", "❌"},
		{SeverityWarning, "WARNINGS:", "⚠️ "},
		{SeverityInfo, "INFO:", "ℹ️ "},
	}

	for _, section := range sections {
		if r.Count(section.severity) == 0 {
			continue
		}
		if _, err := fmt.Fprintln(w, section.header); err != nil {
			return err
		}
		for _, f := range r.Findings {
			if f.Severity != section.severity {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %s %s\n", section.mark, f.String()); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	counts := r.CountByCategory()
	if len(counts) > 0 {
		if _, err := fmt.Fprintln(w, "FINDINGS BY CATEGORY:"); err != nil {
			return err
		}
		categories := make([]string, 0, len(counts))
		for category := range counts {
			categories = append(categories, string(category))
		}
		sort.Strings(categories)
		for _, category := range categories {
			if _, err := fmt.Fprintf(w, "  %s: %d\n", category, counts[Category(category)]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	var line string
	switch {
	case r.Verdict() == VerdictPass && len(r.Findings) == 0:
		line = "✅ Configuration is valid!"
	case r.Verdict() == VerdictPass:
		line = "✅ Configuration is valid (with warnings)"
	default:
		line = "❌ Configuration validation failed"
	}
	_, err := fmt.Fprintln(w, line)

	return err
}

// jsonReport is the wire shape of the JSON renderer.
type jsonReport struct {
	Verdict  Verdict          `json:"verdict"`
	Fatal    bool             `json:"fatal"`
	Errors   int              `json:"errors"`
	Warnings int              `json:"warnings"`
	Info     int              `json:"info"`
	Counts   map[Category]int `json:"counts_by_category"`
	Findings []Finding        `json:"findings"`
}

// WriteJSON renders the machine-readable report.
func (r *Report) WriteJSON(w io.Writer) error {
	r.Sort()

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(jsonReport{
		Verdict:  r.Verdict(),
		Fatal:    r.Fatal,
		Errors:   r.Count(SeverityError),
		Warnings: r.Count(SeverityWarning),
		Info:     r.Count(SeverityInfo),
		Counts:   r.CountByCategory(),
		Findings: r.Findings,
	})
}
