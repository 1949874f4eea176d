package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"cleanspring.dev/pkg/cleanspring/internal/adapter"
	"cleanspring.dev/pkg/cleanspring/internal/controller"
	"cleanspring.dev/pkg/cleanspring/internal/domain/preconditions"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
	"cleanspring.dev/pkg/cleanspring/pkg"
)

const defaultFileMode os.FileMode = 0o644

// InspectArgs contains the arguments for detecting problems.
type InspectArgs struct {
	Paths        []m.Path
	Exclude      []string
	Reports      m.Path
	Parallel     int
	Profile      string
	EnableRules  []string
	DisableRules []string
	Inspections  []m.InspectionID
}

// WatchArgs contains the arguments for re-inspecting on file changes.
type WatchArgs struct {
	InspectArgs
	Debounce time.Duration
}

// FixArgs contains the arguments for applying fixes.
type FixArgs struct {
	InspectArgs
	DryRun       bool
	RequireClean bool
	// Max caps the number of fixes attempted; zero means no cap.
	Max        int
	JournalDir string
}

// ViewArgs contains the arguments for viewing the last report.
type ViewArgs struct {
	Reports m.Path
}

// Workflow is the entry point of every CLI command.
type Workflow interface {
	Inspect(ctx context.Context, args InspectArgs) error
	Watch(ctx context.Context, args WatchArgs) error
	Fix(ctx context.Context, args FixArgs) error
	View(ctx context.Context, args ViewArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.JavaParser
	adapter.XMLAdapter
	adapter.JavaPrinter
	adapter.ReportStore
	adapter.GitAdapter
	adapter.Watcher
	controller.UI
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	parser adapter.JavaParser,
	xmlAdapter adapter.XMLAdapter,
	printer adapter.JavaPrinter,
	reportStore adapter.ReportStore,
	git adapter.GitAdapter,
	watcher adapter.Watcher,
	ui controller.UI,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		JavaParser:      parser,
		XMLAdapter:      xmlAdapter,
		JavaPrinter:     printer,
		ReportStore:     reportStore,
		GitAdapter:      git,
		Watcher:         watcher,
		UI:              ui,
	}
}

// workspace is a loaded project plus what is needed to write it back.
type workspace struct {
	root     m.Path
	project  *program.Project
	original map[m.Path][]byte
	failed   []m.Path
	warnings []string
}

// Inspect detects problems once, shows them and saves a report.
func (w *workflow) Inspect(ctx context.Context, args InspectArgs) error {
	detector, profile, err := newDetector(args)
	if err != nil {
		return err
	}

	if err := w.Start(ctx, controller.WithInspectMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	if err := w.inspectOnce(ctx, args, detector, profile); err != nil {
		w.Close(ctx)
		return err
	}

	// Wait for UI to be closed by user (press 'q')
	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

// Watch inspects once and then again after every debounced batch of
// changes, until ctx is done or the user closes the UI.
func (w *workflow) Watch(ctx context.Context, args WatchArgs) error {
	detector, profile, err := newDetector(args.InspectArgs)
	if err != nil {
		return err
	}

	if err := w.Start(ctx, controller.WithInspectMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-w.Closed():
			cancel()
		case <-watchCtx.Done():
		}
	}()

	if err := w.inspectOnce(watchCtx, args.InspectArgs, detector, profile); err != nil {
		return err
	}

	err = w.Watcher.Watch(watchCtx, watchRoots(args.Paths), args.Debounce, func(changed []m.Path) {
		slog.Info("re-inspecting after changes", "files", len(changed))

		if err := w.inspectOnce(watchCtx, args.InspectArgs, detector, profile); err != nil {
			slog.Error("inspection failed", "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch: %w", err)
	}

	return nil
}

func (w *workflow) inspectOnce(ctx context.Context, args InspectArgs, detector Detector, profile string) error {
	ws, err := w.load(ctx, args)
	if err != nil {
		return err
	}

	findings, err := detector.Detect(ctx, ws.project)
	if err != nil {
		slog.Error("Failed to detect problems", "error", err)
		return err
	}

	problems := problemsOf(findings)

	if err := w.DisplayProblems(ctx, problems, ws.warnings); err != nil {
		slog.Error("Failed to display problems", "error", err)
		return fmt.Errorf("display: %w", err)
	}

	return w.saveReport(args.Reports, m.Report{
		Root:     ws.root,
		Profile:  profile,
		Problems: problems,
		Warnings: ws.warnings,
	})
}

// Fix applies fixes until no untried fixable problem remains, then writes
// the touched files back, or shows their diffs in dry-run mode.
func (w *workflow) Fix(ctx context.Context, args FixArgs) error {
	detector, profile, err := newDetector(args.InspectArgs)
	if err != nil {
		return err
	}

	ws, err := w.load(ctx, args.InspectArgs)
	if err != nil {
		return err
	}

	if len(ws.failed) > 0 {
		return fmt.Errorf("%w: %d file(s) failed to parse: %s", ErrIncompleteIndex, len(ws.failed), joinPaths(ws.failed))
	}

	if args.RequireClean && !args.DryRun {
		if err := w.requireClean(ws.root); err != nil {
			return err
		}
	}

	if err := w.Start(ctx, controller.WithFixMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	results, err := NewFixer(detector).FixAll(ctx, ws.project, args.Max, func(r m.FixResult) {
		w.DisplayFixResult(ctx, r)
	})
	if err != nil {
		w.Close(ctx)
		return fmt.Errorf("fix: %w", err)
	}

	changed := w.changedFiles(ws, results)

	if args.DryRun {
		for _, c := range changed {
			path := m.Path(c.Path)
			w.DisplayDiff(ctx, path, unifiedDiff(path, ws.original[path], c.Content))
		}
	} else if err := w.writeAll(args.JournalDir, changed); err != nil {
		w.Close(ctx)
		return err
	}

	findings, err := detector.Detect(ctx, ws.project)
	if err != nil {
		w.Close(ctx)
		return err
	}

	remaining := problemsOf(findings)
	if err := w.DisplayProblems(ctx, remaining, ws.warnings); err != nil {
		w.Close(ctx)
		return fmt.Errorf("display: %w", err)
	}

	err = w.saveReport(args.Reports, m.Report{
		Root:     ws.root,
		Profile:  profile,
		Problems: remaining,
		Fixes:    results,
		Warnings: ws.warnings,
	})
	if err != nil {
		w.Close(ctx)
		return err
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

// View shows the most recent report.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	report, err := w.LatestReport(args.Reports)
	if err != nil {
		slog.Error("Failed to load report", "path", args.Reports, "error", err)
		return fmt.Errorf("load report: %w", err)
	}

	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		return err
	}

	if err := w.DisplayReport(ctx, report); err != nil {
		w.Close(ctx)
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

func newDetector(args InspectArgs) (Detector, string, error) {
	profile := args.Profile
	if profile == "" {
		profile = preconditions.DefaultProfile
	}

	ev, err := preconditions.NewEvaluator(profile, args.EnableRules, args.DisableRules)
	if err != nil {
		return nil, "", fmt.Errorf("rules: %w", err)
	}

	inspections, err := SelectInspections(Inspections(ev), args.Inspections)
	if err != nil {
		return nil, "", err
	}

	return NewDetector(inspections...), profile, nil
}

func defaultPaths(paths []m.Path) []m.Path {
	if len(paths) == 0 {
		return []m.Path{"./..."}
	}

	return paths
}

func watchRoots(paths []m.Path) []m.Path {
	roots := make([]m.Path, 0, len(paths))

	for _, p := range defaultPaths(paths) {
		root := strings.TrimSuffix(strings.TrimSuffix(string(p), "..."), "/")
		if root == "" {
			root = "."
		}

		roots = append(roots, m.Path(root))
	}

	return roots
}

// load discovers and parses every input in parallel. Java files that fail
// to parse are recorded as warnings instead of aborting the load.
func (w *workflow) load(ctx context.Context, args InspectArgs) (*workspace, error) {
	paths := defaultPaths(args.Paths)

	files, err := w.DiscoverFiles(paths, args.Exclude)
	if err != nil {
		slog.Error("Failed to discover files", "error", err)
		return nil, fmt.Errorf("discover: %w", err)
	}

	root, err := w.projectRoot(paths)
	if err != nil {
		return nil, err
	}

	contents := make([][]byte, len(files))
	units := make([]*m.Unit, len(files))
	docs := make([]*m.XMLDocument, len(files))
	parseErrs := make([]error, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(args.Parallel, 1))

	for i, f := range files {
		group.Go(func() error {
			src, err := w.ReadFile(f.Path)
			if err != nil {
				return fmt.Errorf("read %s: %w", f.Path, err)
			}

			contents[i] = src

			switch f.Kind {
			case m.FileJava:
				units[i], parseErrs[i] = w.ParseUnit(groupCtx, f.Path, src)
			case m.FileXML:
				docs[i], parseErrs[i] = w.ParseDocument(f.Path, src)
			}

			return groupCtx.Err()
		})
	}

	if err := group.Wait(); err != nil {
		slog.Error("Failed to load sources", "error", err)
		return nil, fmt.Errorf("load: %w", err)
	}

	ws := &workspace{root: root, original: make(map[m.Path][]byte, len(files))}

	var (
		keptUnits []*m.Unit
		keptDocs  []*m.XMLDocument
	)

	for i, f := range files {
		ws.original[f.Path] = contents[i]

		if parseErrs[i] != nil {
			slog.Warn("skipping unparsable file", "path", f.Path, "error", parseErrs[i])
			ws.warnings = append(ws.warnings, fmt.Sprintf("%s: %v", f.Path, parseErrs[i]))

			if f.Kind == m.FileJava {
				ws.failed = append(ws.failed, f.Path)
			}

			continue
		}

		if units[i] != nil {
			keptUnits = append(keptUnits, units[i])
		}

		if docs[i] != nil {
			keptDocs = append(keptDocs, docs[i])
		}
	}

	ws.project = program.NewProject(keptUnits, keptDocs, w.JavaParser)

	slog.Info("loaded project", "root", root, "java", len(keptUnits), "xml", len(keptDocs), "failed", len(ws.failed))

	return ws, nil
}

func (w *workflow) projectRoot(paths []m.Path) (m.Path, error) {
	start := watchRoots(paths[:1])[0]

	root, err := w.FindProjectRoot(start)
	if errors.Is(err, adapter.ErrProjectRootNotFound) {
		return start, nil
	}

	if err != nil {
		return "", fmt.Errorf("find project root: %w", err)
	}

	return root, nil
}

func (w *workflow) requireClean(root m.Path) error {
	dirty, err := w.Dirty(root)
	if err != nil {
		slog.Error("Failed to inspect work tree", "root", root, "error", err)
		return fmt.Errorf("check work tree: %w", err)
	}

	if len(dirty) > 0 {
		return fmt.Errorf("%w: %s", ErrDirtyWorktree, strings.Join(dirty, ", "))
	}

	return nil
}

// changedFiles renders every file an applied fix touched and keeps those
// whose content differs from disk.
func (w *workflow) changedFiles(ws *workspace, results []m.FixResult) []pkg.Entry {
	touched := map[m.Path]bool{}

	for _, r := range results {
		if !r.Applied {
			continue
		}

		for _, p := range r.Files {
			touched[p] = true
		}
	}

	var out []pkg.Entry

	for _, u := range ws.project.Units() {
		if touched[u.Path] {
			out = appendChanged(out, ws, u.Path, w.PrintUnit(u))
		}
	}

	for _, d := range ws.project.Documents() {
		if touched[d.Path] {
			out = appendChanged(out, ws, d.Path, w.PrintDocument(d))
		}
	}

	slices.SortFunc(out, func(a, b pkg.Entry) int { return strings.Compare(a.Path, b.Path) })

	return out
}

func appendChanged(out []pkg.Entry, ws *workspace, path m.Path, content []byte) []pkg.Entry {
	if string(ws.original[path]) == string(content) {
		return out
	}

	return append(out, pkg.Entry{Path: string(path), Content: content})
}

// writeAll journals the original of every file before overwriting it and
// restores all of them when any write fails.
func (w *workflow) writeAll(journalDir string, changed []pkg.Entry) error {
	if len(changed) == 0 {
		return nil
	}

	journal, err := pkg.NewJournal(journalDir)
	if err != nil {
		return err
	}

	defer func() {
		if err := journal.Close(); err != nil {
			slog.Warn("failed to close journal", "error", err)
		}
	}()

	for _, c := range changed {
		path := m.Path(c.Path)
		mode := defaultFileMode

		if info, err := w.FileInfo(path); err == nil {
			mode = info.Mode().Perm()
		}

		original, err := w.ReadFile(path)
		if err != nil {
			return w.rollback(journal, fmt.Errorf("read %s: %w", path, err))
		}

		if err := journal.Record(pkg.Entry{Path: c.Path, Content: original, Mode: mode}); err != nil {
			return w.rollback(journal, err)
		}

		if err := w.WriteFile(path, c.Content, mode); err != nil {
			slog.Error("Failed to write file", "path", path, "error", err)
			return w.rollback(journal, fmt.Errorf("write %s: %w", path, err))
		}

		slog.Info("wrote file", "path", path)
	}

	return nil
}

func (w *workflow) rollback(journal pkg.Journal, cause error) error {
	restoreErr := journal.Restore(func(e pkg.Entry) error {
		return w.WriteFile(m.Path(e.Path), e.Content, e.Mode)
	})

	return errors.Join(cause, restoreErr)
}

func (w *workflow) saveReport(dir m.Path, report m.Report) error {
	if dir == "" {
		return nil
	}

	report.RunID = w.NewRunID()
	report.CreatedAt = time.Now()

	path, err := w.SaveReport(dir, report)
	if err != nil {
		slog.Error("Failed to save report", "dir", dir, "error", err)
		return fmt.Errorf("save report: %w", err)
	}

	slog.Info("saved report", "path", path, "problems", len(report.Problems), "fixes", len(report.Fixes))

	return nil
}

func problemsOf(findings []Finding) []m.Problem {
	problems := make([]m.Problem, 0, len(findings))
	for _, f := range findings {
		problems = append(problems, f.Problem)
	}

	return problems
}

func unifiedDiff(path m.Path, before, after []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + string(path),
		ToFile:   "b/" + string(path),
		Context:  3,
	})
	if err != nil {
		slog.Warn("failed to diff", "path", path, "error", err)
		return ""
	}

	return diff
}

func joinPaths(paths []m.Path) string {
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		parts = append(parts, string(p))
	}

	return strings.Join(parts, ", ")
}
