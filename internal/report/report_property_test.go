//go:build property

package report

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genFinding() gopter.Gen {
	severities := gen.OneConstOf(SeverityInfo, SeverityWarning, SeverityError)
	categories := gen.OneConstOf(
		CategorySyntax, CategoryEncoding, CategoryInclude, CategoryStructure,
		CategoryUnknownReference, CategoryDisabledEntity, CategoryCoverage,
		CategoryOfficial, CategoryFatal,
	)

	return gopter.CombineGens(
		severities,
		categories,
		gen.AlphaString(),
		gen.OneConstOf("", "a.yaml", "b.yaml", "sensors/temp.yaml"),
		gen.IntRange(0, 200),
	).Map(func(values []interface{}) Finding {
		return Finding{
			Severity: values[0].(Severity),
			Category: values[1].(Category),
			Message:  values[2].(string),
			File:     values[3].(string),
			Line:     values[4].(int),
		}
	})
}

// TestReportProperties validates report determinism and verdict invariants.
func TestReportProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("text render is independent of emission order", prop.ForAll(
		func(findings []Finding, seed int64) bool {
			first := New()
			first.Add(findings...)

			shuffled := make([]Finding, len(findings))
			copy(shuffled, findings)
			rng := rand.New(rand.NewSource(seed))
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			second := New()
			second.Add(shuffled...)

			var a, b bytes.Buffer
			if err := first.WriteText(&a); err != nil {
				return false
			}
			if err := second.WriteText(&b); err != nil {
				return false
			}

			return a.String() == b.String()
		},
		gen.SliceOf(genFinding()),
		gen.Int64(),
	))

	properties.Property("rendering twice is byte-identical", prop.ForAll(
		func(findings []Finding) bool {
			r := New()
			r.Add(findings...)

			var first, second bytes.Buffer
			if err := r.WriteText(&first); err != nil {
				return false
			}
			if err := r.WriteText(&second); err != nil {
				return false
			}

			return first.String() == second.String()
		},
		gen.SliceOf(genFinding()),
	))

	properties.Property("verdict fails iff fatal or an error exists", prop.ForAll(
		func(findings []Finding, fatal bool) bool {
			r := New()
			r.Add(findings...)
			if fatal {
				r.MarkFatal()
			}

			shouldFail := fatal
			for _, f := range findings {
				if f.Severity == SeverityError {
					shouldFail = true
				}
			}

			if shouldFail {
				return r.Verdict() == VerdictFail
			}

			return r.Verdict() == VerdictPass
		},
		gen.SliceOf(genFinding()),
		gen.Bool(),
	))

	properties.Property("sort preserves the finding multiset", prop.ForAll(
		func(findings []Finding) bool {
			r := New()
			r.Add(findings...)
			r.Sort()

			if len(r.Findings) != len(findings) {
				return false
			}

			counts := make(map[Finding]int)
			for _, f := range findings {
				counts[f]++
			}
			for _, f := range r.Findings {
				counts[f]--
			}
			for _, n := range counts {
				if n != 0 {
					return false
				}
			}

			return true
		},
		gen.SliceOf(genFinding()),
	))

	properties.TestingRun(t)
}
