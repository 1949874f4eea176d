package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd  *cobra.Command
	mode StartMode
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mode = startConfig(options).Mode()

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	// SimpleUI doesn't block - it just prints and continues
}

// Closed returns nil; plain output is never dismissed.
func (s *SimpleUI) Closed() <-chan struct{} {
	return nil
}

// DisplayProblems prints the problems as a table followed by load warnings.
func (s *SimpleUI) DisplayProblems(ctx context.Context, problems []m.Problem, warnings []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, w := range warnings {
		s.printf("warning: %s\n", w)
	}

	if len(problems) == 0 {
		s.printf("No problems found\n")
		return nil
	}

	s.printf("\n%s", renderProblemsTable(problems))

	return nil
}

// DisplayFixResult prints one line per fix attempt, plus its warnings.
func (s *SimpleUI) DisplayFixResult(ctx context.Context, result m.FixResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s\n", formatFixResult(result))

	for _, w := range result.Warnings {
		s.printf("    warning: %s\n", w)
	}
}

// DisplayDiff prints a unified diff.
func (s *SimpleUI) DisplayDiff(ctx context.Context, path m.Path, diff string) {
	if err := ctx.Err(); err != nil {
		return
	}

	if diff == "" {
		return
	}

	s.printf("File: %s\n%s\n", path, diff)
}

// DisplayReport prints a saved report.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s\n", reportHeader(report))

	if err := s.DisplayProblems(ctx, report.Problems, report.Warnings); err != nil {
		return err
	}

	if len(report.Fixes) > 0 {
		s.printf("\n")
	}

	for _, fix := range report.Fixes {
		s.DisplayFixResult(ctx, fix)
	}

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func renderProblemsTable(problems []m.Problem) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Location", "Severity", "Inspection", "Symbol", "Fix"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
	})

	fixable := 0
	files := map[m.Path]bool{}

	for _, p := range problems {
		table.Append([]string{
			formatLocation(p.Location),
			p.Severity.String(),
			string(p.Inspection),
			p.Symbol,
			p.FixName,
		})

		files[p.Location.Path] = true

		if p.FixName != "" {
			fixable++
		}
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(files)),
		fmt.Sprintf("%d", len(problems)),
		"",
		"Fixable",
		fmt.Sprintf("%d", fixable),
	})

	table.Render()

	return tableBuffer.String()
}

func formatLocation(l m.Location) string {
	if l.Pos.Line == 0 {
		return string(l.Path)
	}

	return fmt.Sprintf("%s:%d:%d", l.Path, l.Pos.Line, l.Pos.Column)
}

func formatFixResult(r m.FixResult) string {
	var b strings.Builder

	switch {
	case r.Applied:
		b.WriteString("applied ")
	case r.Error != "":
		b.WriteString("failed  ")
	default:
		b.WriteString("skipped ")
	}

	fmt.Fprintf(&b, "%s: %s", r.Symbol, r.FixName)

	if r.Confidence == m.ConfidenceLow {
		b.WriteString(" (low confidence)")
	}

	if r.Error != "" {
		fmt.Fprintf(&b, " -> %s", r.Error)
	}

	return b.String()
}

func reportHeader(r m.Report) string {
	return fmt.Sprintf("Report %s (%s) root=%s profile=%s",
		r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Root, r.Profile)
}
