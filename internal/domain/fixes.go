package domain

import (
	"fmt"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

type migrateFieldFix struct {
	field *m.Field
}

func (migrateFieldFix) Name() string { return "Convert field injection to constructor injection" }

func (f migrateFieldFix) Apply(tx *program.Tx) (Outcome, error) {
	return Migrate(tx, FieldProperty(f.field))
}

type migrateSetterFix struct {
	setter *m.Method
}

func (migrateSetterFix) Name() string { return "Convert setter injection to constructor injection" }

func (f migrateSetterFix) Apply(tx *program.Tx) (Outcome, error) {
	p, err := SetterProperty(tx.Index(), f.setter)
	if err != nil {
		return Outcome{}, err
	}

	return Migrate(tx, p)
}

type removeFieldFix struct {
	field *m.Field
}

func (removeFieldFix) Name() string { return "Remove unused injected field" }

func (f removeFieldFix) Apply(tx *program.Tx) (Outcome, error) {
	u := m.EnclosingUnit(f.field)

	if err := tx.Remove(f.field); err != nil {
		return Outcome{}, contract(err)
	}

	return Outcome{Confidence: m.ConfidenceHigh}, pruneImports(tx, u, springImports...)
}

// beanParameterFix replaces a field read only by @Bean methods with a
// parameter of each of those methods.
type beanParameterFix struct {
	field *m.Field
}

func (beanParameterFix) Name() string { return "Inject as @Bean method parameter" }

func (f beanParameterFix) Apply(tx *program.Tx) (Outcome, error) {
	outcome := newOutcome()
	spec := FieldProperty(f.field)
	params := newThreader(tx, spec, f.field, outcome)
	u := m.EnclosingUnit(f.field)

	for _, ref := range tx.Index().References(f.field) {
		bean := program.EnclosingBeanMethod(ref.Element)
		if bean == nil {
			return *outcome, fmt.Errorf("use of %s at %s outside a @Bean method: %w", f.field.Name, describe(ref.Element), ErrContractViolation)
		}

		name, err := params.require(bean)
		if err != nil {
			return *outcome, err
		}

		if n, ok := ref.Element.(*m.Name); ok && n.Ident == name {
			continue
		}

		if err := tx.Replace(ref.Element, &m.Name{Ident: name}); err != nil {
			return *outcome, contract(err)
		}
	}

	if err := tx.Remove(f.field); err != nil {
		return *outcome, contract(err)
	}

	return *outcome, pruneImports(tx, u, springImports...)
}
