package report

import "fmt"

// Severity ranks a finding. Only error-severity findings fail a run.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the severity as its lowercase name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

// Category groups findings for the per-category rollup in the final report.
type Category string

const (
	CategorySyntax           Category = "syntax"
	CategoryEncoding         Category = "encoding"
	CategoryInclude          Category = "include"
	CategoryStructure        Category = "structure"
	CategoryUnknownReference Category = "unknown-reference"
	CategoryDisabledEntity   Category = "disabled-entity"
	CategoryCoverage         Category = "coverage"
	CategoryOfficial         Category = "official"
	CategoryFatal            Category = "fatal"
)

// Finding is one diagnostic produced by a validator layer. Findings are
// append-only: once emitted they are never removed, only aggregated.
type Finding struct {
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
}

// String renders the finding the way the text report prints it.
func (f Finding) String() string {
	if f.File == "" {
		return f.Message
	}
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", f.File, f.Line, f.Message)
	}

	return fmt.Sprintf("%s: %s", f.File, f.Message)
}

// Errorf builds an error-severity finding.
func Errorf(category Category, file string, line int, format string, args ...interface{}) Finding {
	return Finding{
		Severity: SeverityError,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		File:     file,
		Line:     line,
	}
}

// Warnf builds a warning-severity finding.
func Warnf(category Category, file string, line int, format string, args ...interface{}) Finding {
	return Finding{
		Severity: SeverityWarning,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		File:     file,
		Line:     line,
	}
}

// Infof builds an info-severity finding.
func Infof(category Category, file string, line int, format string, args ...interface{}) Finding {
	return Finding{
		Severity: SeverityInfo,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		File:     file,
		Line:     line,
	}
}
