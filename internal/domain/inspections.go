package domain

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"cleanspring.dev/pkg/cleanspring/internal/domain/preconditions"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

// ErrUnknownInspection is returned when an inspection filter names no inspection.
var ErrUnknownInspection = errors.New("unknown inspection")

// Fix rewrites the program to resolve one problem. Apply runs inside a
// write transaction; a returned error rolls every mutation back.
type Fix interface {
	Name() string
	Apply(tx *program.Tx) (Outcome, error)
}

// Finding is a reported problem and the fix offered for it, if any.
type Finding struct {
	Problem m.Problem
	Fix     Fix
}

// Inspection reports problems on a read-only index.
type Inspection interface {
	ID() m.InspectionID
	Inspect(ix *program.Index) []Finding
}

// Inspections returns every inspection, field and setter injection judged
// by ev.
func Inspections(ev *preconditions.Evaluator) []Inspection {
	return []Inspection{
		unusedFieldInspection{},
		beanParameterInspection{},
		fieldInjectionInspection{ev: ev},
		setterInjectionInspection{ev: ev},
		unnecessaryBeanInspection{},
		possiblyUnnecessaryInspection{},
	}
}

// SelectInspections keeps the inspections named in ids; no ids keeps all.
func SelectInspections(all []Inspection, ids []m.InspectionID) ([]Inspection, error) {
	if len(ids) == 0 {
		return all, nil
	}

	var out []Inspection

	for _, id := range ids {
		i := slices.IndexFunc(all, func(insp Inspection) bool { return insp.ID() == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownInspection, id)
		}

		out = append(out, all[i])
	}

	return out, nil
}

// Detector runs inspections over a project.
type Detector interface {
	Detect(ctx context.Context, p *program.Project) ([]Finding, error)
}

type detector struct {
	inspections []Inspection
}

// NewDetector creates a Detector running the given inspections concurrently.
func NewDetector(inspections ...Inspection) Detector {
	return &detector{inspections: inspections}
}

// Detect returns the findings ordered by location.
func (d *detector) Detect(ctx context.Context, p *program.Project) ([]Finding, error) {
	var out []Finding

	err := p.Read(func(ix *program.Index) error {
		results := make([][]Finding, len(d.inspections))

		group, gctx := errgroup.WithContext(ctx)

		for i, insp := range d.inspections {
			group.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				results[i] = insp.Inspect(ix)

				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return err
		}

		for _, r := range results {
			out = append(out, r...)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	slices.SortStableFunc(out, func(a, b Finding) int {
		return cmp.Or(
			cmp.Compare(a.Problem.Location.Path, b.Problem.Location.Path),
			cmp.Compare(a.Problem.Location.Pos.Line, b.Problem.Location.Pos.Line),
			cmp.Compare(a.Problem.Location.Pos.Column, b.Problem.Location.Pos.Column),
			cmp.Compare(a.Problem.ID, b.Problem.ID),
		)
	})

	return out, nil
}

func finding(ix *program.Index, id m.InspectionID, sev m.Severity, decl m.Node, member, message string, fix Fix) Finding {
	owner := m.EnclosingClass(decl)

	p := m.Problem{
		ID:         fmt.Sprintf("%s:%s#%s", id, ix.FQN(owner), member),
		Inspection: id,
		Severity:   sev,
		Message:    message,
		Symbol:     owner.Name + "." + member,
		Location:   Locate(decl),
	}

	if fix != nil {
		p.FixName = fix.Name()
	}

	return Finding{Problem: p, Fix: fix}
}

func namedClasses(ix *program.Index) []*m.Class {
	return slices.DeleteFunc(slices.Clone(ix.Classes()), func(c *m.Class) bool {
		return c.Sort == m.ClassKindAnonymous
	})
}

func injectedFields(ix *program.Index) []*m.Field {
	var out []*m.Field

	for _, c := range namedClasses(ix) {
		for _, f := range c.Fields() {
			if program.IsInjected(f.Mods) {
				out = append(out, f)
			}
		}
	}

	return out
}

func isUnused(ix *program.Index, f *m.Field) bool {
	return len(ix.References(f)) == 0
}

// beanParameterCandidate reports whether every use of f reads it inside a
// @Bean method of its own class, so a method parameter can replace it.
func beanParameterCandidate(ix *program.Index, f *m.Field) bool {
	refs := ix.References(f)
	if len(refs) == 0 || len(ix.Assignments(f)) > 0 {
		return false
	}

	owner := m.EnclosingClass(f)

	for _, ref := range refs {
		if fa, ok := ref.Element.(*m.FieldAccess); ok {
			if this, ok := fa.X.(*m.This); !ok || this.Keyword != "this" {
				return false
			}
		}

		bean := program.EnclosingBeanMethod(ref.Element)
		if bean == nil || m.EnclosingClass(bean) != owner {
			return false
		}

		if freeName(bean, f.Name) != f.Name {
			return false
		}
	}

	return true
}

type unusedFieldInspection struct{}

func (unusedFieldInspection) ID() m.InspectionID { return m.InspectionUnusedInjectedField }

func (i unusedFieldInspection) Inspect(ix *program.Index) []Finding {
	var out []Finding

	for _, f := range injectedFields(ix) {
		if isUnused(ix, f) {
			out = append(out, finding(ix, i.ID(), m.SeverityUnused, f, f.Name,
				"Injected field "+f.Name+" is never used", removeFieldFix{field: f}))
		}
	}

	return out
}

type beanParameterInspection struct{}

func (beanParameterInspection) ID() m.InspectionID { return m.InspectionFieldAsBeanParameter }

func (i beanParameterInspection) Inspect(ix *program.Index) []Finding {
	var out []Finding

	for _, f := range injectedFields(ix) {
		if beanParameterCandidate(ix, f) {
			out = append(out, finding(ix, i.ID(), m.SeverityWarning, f, f.Name,
				"Field "+f.Name+" is only used by @Bean methods and can be injected as a method parameter",
				beanParameterFix{field: f}))
		}
	}

	return out
}

type fieldInjectionInspection struct {
	ev *preconditions.Evaluator
}

func (fieldInjectionInspection) ID() m.InspectionID { return m.InspectionFieldInjection }

func (i fieldInjectionInspection) Inspect(ix *program.Index) []Finding {
	var out []Finding

	for _, f := range injectedFields(ix) {
		if isUnused(ix, f) || beanParameterCandidate(ix, f) {
			continue
		}

		if !i.ev.EvaluateField(ix, f).Eligible {
			continue
		}

		out = append(out, finding(ix, i.ID(), m.SeverityWarning, f, f.Name,
			"Field injection can be replaced with constructor injection", migrateFieldFix{field: f}))
	}

	return out
}

type setterInjectionInspection struct {
	ev *preconditions.Evaluator
}

func (setterInjectionInspection) ID() m.InspectionID { return m.InspectionSetterInjection }

func (i setterInjectionInspection) Inspect(ix *program.Index) []Finding {
	var out []Finding

	for _, c := range namedClasses(ix) {
		for _, meth := range c.Methods() {
			if meth.Mods.Find(program.AnnotationAutowired) == nil {
				continue
			}

			if !i.ev.EvaluateSetter(ix, meth).Eligible {
				continue
			}

			out = append(out, finding(ix, i.ID(), m.SeverityWarning, meth, meth.Name+"()",
				"Setter injection can be replaced with constructor injection", migrateSetterFix{setter: meth}))
		}
	}

	return out
}

func beanMethods(ix *program.Index) []*m.Method {
	var out []*m.Method

	for _, c := range namedClasses(ix) {
		for _, meth := range c.Methods() {
			if program.IsBeanMethod(meth) {
				out = append(out, meth)
			}
		}
	}

	return out
}

// unnecessaryBean reports whether the container could build the bean from
// an @Import: the factory only forwards its parameters and is only called
// from other @Bean methods.
func unnecessaryBean(ix *program.Index, meth *m.Method) bool {
	if _, ok := simpleBeanShape(ix, meth); !ok {
		return false
	}

	for _, ref := range ix.References(meth) {
		if ref.Kind != program.RefCall || program.EnclosingBeanMethod(ref.Element) == nil {
			return false
		}
	}

	return true
}

type unnecessaryBeanInspection struct{}

func (unnecessaryBeanInspection) ID() m.InspectionID { return m.InspectionUnnecessaryBean }

func (i unnecessaryBeanInspection) Inspect(ix *program.Index) []Finding {
	var out []Finding

	for _, meth := range beanMethods(ix) {
		if unnecessaryBean(ix, meth) {
			out = append(out, finding(ix, i.ID(), m.SeverityWarning, meth, meth.Name+"()",
				"@Bean method "+meth.Name+" can be replaced with @Import", simplifyBeanFix{method: meth}))
		}
	}

	return out
}

type possiblyUnnecessaryInspection struct{}

func (possiblyUnnecessaryInspection) ID() m.InspectionID { return m.InspectionPossiblyUnnecessary }

func (i possiblyUnnecessaryInspection) Inspect(ix *program.Index) []Finding {
	var out []Finding

	for _, meth := range beanMethods(ix) {
		refs := ix.References(meth)
		if len(refs) != 1 || refs[0].Kind != program.RefCall || unnecessaryBean(ix, meth) {
			continue
		}

		var fix Fix

		if _, ok := simpleBeanShape(ix, meth); ok {
			if caller := m.EnclosingMethod(refs[0].Element); caller != nil && !caller.Ctor {
				fix = simplifyBeanFix{method: meth}
			}
		}

		out = append(out, finding(ix, i.ID(), m.SeverityWeakWarning, meth, meth.Name+"()",
			"@Bean method "+meth.Name+" is called directly and may be replaceable with @Import", fix))
	}

	return out
}
