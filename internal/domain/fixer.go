package domain

import (
	"context"
	"log/slog"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

// Fixer applies fixes one at a time until no untried fixable problem is left.
type Fixer interface {
	// FixAll applies at most limit fixes (no limit when limit <= 0) and calls
	// onResult after each attempt.
	FixAll(ctx context.Context, p *program.Project, limit int, onResult func(m.FixResult)) ([]m.FixResult, error)
}

type fixer struct {
	detector Detector
}

// NewFixer creates a Fixer that re-runs detector after every fix, since a
// rewrite can create, remove or move problems elsewhere.
func NewFixer(detector Detector) Fixer {
	return &fixer{detector: detector}
}

func (f *fixer) FixAll(ctx context.Context, p *program.Project, limit int, onResult func(m.FixResult)) ([]m.FixResult, error) {
	attempted := map[string]bool{}

	var results []m.FixResult

	for limit <= 0 || len(results) < limit {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		findings, err := f.detector.Detect(ctx, p)
		if err != nil {
			return results, err
		}

		next, ok := nextFinding(findings, attempted)
		if !ok {
			break
		}

		attempted[next.Problem.ID] = true

		result := applyFix(p, next)
		results = append(results, result)

		if onResult != nil {
			onResult(result)
		}
	}

	slog.Info("fix loop finished", "attempted", len(results))

	return results, nil
}

func nextFinding(findings []Finding, attempted map[string]bool) (Finding, bool) {
	for _, fd := range findings {
		if fd.Fix != nil && !attempted[fd.Problem.ID] {
			return fd, true
		}
	}

	return Finding{}, false
}

// applyFix runs one fix in its own transaction. A failed fix leaves the
// project untouched and is reported, not returned.
func applyFix(p *program.Project, fd Finding) m.FixResult {
	result := m.FixResult{
		ProblemID:  fd.Problem.ID,
		Inspection: fd.Problem.Inspection,
		Symbol:     fd.Problem.Symbol,
		FixName:    fd.Fix.Name(),
	}

	var (
		outcome Outcome
		files   []m.Path
	)

	err := p.Write(func(tx *program.Tx) error {
		var err error

		outcome, err = fd.Fix.Apply(tx)
		if err != nil {
			return err
		}

		files = tx.Files()

		return nil
	})
	if err != nil {
		slog.Error("fix failed", "problem", fd.Problem.ID, "fix", result.FixName, "error", err)
		result.Error = err.Error()

		return result
	}

	result.Applied = true
	result.Confidence = outcome.Confidence
	result.Warnings = outcome.Warnings
	result.Files = files

	slog.Info("applied fix", "problem", fd.Problem.ID, "fix", result.FixName, "confidence", outcome.Confidence, "files", len(files))

	return result
}
