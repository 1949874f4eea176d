package preconditions

import (
	"fmt"
	"log/slog"
	"slices"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

// Verdict is the outcome of an evaluation. Failed holds the rule that
// stopped it; precondition failures are not errors.
type Verdict struct {
	Eligible bool
	Failed   []RuleID
}

// Evaluator runs the rules of one profile.
type Evaluator struct {
	set   RuleSet
	rules []Rule
}

// NewEvaluator builds an evaluator for profile, with extra rules switched on
// and others switched off.
func NewEvaluator(profile string, enable, disable []string) (*Evaluator, error) {
	set, err := Profile(profile)
	if err != nil {
		return nil, err
	}

	for _, name := range enable {
		id := RuleID(name)
		if _, ok := Lookup(id); !ok {
			return nil, fmt.Errorf("enable %q: %w", name, ErrUnknownRule)
		}

		if !set.Has(id) {
			set.Rules = append(set.Rules, id)
		}
	}

	for _, name := range disable {
		id := RuleID(name)
		if _, ok := Lookup(id); !ok {
			return nil, fmt.Errorf("disable %q: %w", name, ErrUnknownRule)
		}

		set.Rules = slices.DeleteFunc(set.Rules, func(r RuleID) bool { return r == id })
	}

	e := &Evaluator{set: set}

	for _, r := range table {
		if set.Has(r.ID) {
			e.rules = append(e.rules, r)
		}
	}

	return e, nil
}

// RuleSet returns the effective rule selection.
func (e *Evaluator) RuleSet() RuleSet {
	return e.set
}

// EvaluateField checks a field injection candidate.
func (e *Evaluator) EvaluateField(ix *program.Index, f *m.Field) Verdict {
	return e.Evaluate(ix, Target{Class: m.EnclosingClass(f), Field: f})
}

// EvaluateSetter checks a setter injection candidate.
func (e *Evaluator) EvaluateSetter(ix *program.Index, setter *m.Method) Verdict {
	t := Target{Class: m.EnclosingClass(setter), Setter: setter}

	if f, _, ok := ix.SetterAssignment(setter); ok {
		t.Field = f
	}

	return e.Evaluate(ix, t)
}

// Evaluate runs every rule applying to the subject of t, in table order,
// until one fails.
func (e *Evaluator) Evaluate(ix *program.Index, t Target) Verdict {
	if t.Class == nil {
		return Verdict{Failed: []RuleID{ClassNotAnonymous}}
	}

	subject := t.Subject()

	for _, r := range e.rules {
		if !r.Applies(subject) {
			continue
		}

		if !r.Check(ix, t) {
			slog.Debug("precondition failed",
				"rule", string(r.ID),
				"target", t.String(),
				"profile", e.set.Name,
				"version", e.set.Version)

			return Verdict{Failed: []RuleID{r.ID}}
		}
	}

	return Verdict{Eligible: true}
}
