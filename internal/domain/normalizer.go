package domain

import (
	"fmt"
	"log/slog"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

// Normalize makes sure c has exactly one explicit constructor and, when c
// extends another class, that the constructor opens with super(...) or
// this(...). It returns that constructor. A second call changes nothing.
func Normalize(tx *program.Tx, c *m.Class) (*m.Method, error) {
	if c.Sort != m.ClassKindClass {
		return nil, fmt.Errorf("normalize %s: not a named class: %w", c.Name, ErrContractViolation)
	}

	ctors := c.Constructors()

	switch len(ctors) {
	case 0:
		return synthesizeConstructor(tx, c)
	case 1:
		if err := ensureSuperCall(tx, c, ctors[0]); err != nil {
			return nil, err
		}

		return ctors[0], nil
	}

	return nil, fmt.Errorf("normalize %s: %d constructors: %w", c.Name, len(ctors), ErrContractViolation)
}

func synthesizeConstructor(tx *program.Tx, c *m.Class) (*m.Method, error) {
	text := "public " + c.Name + "() {\n}"
	if c.Extends != nil {
		text = "public " + c.Name + "() {\n    super();\n}"
	}

	mem, err := tx.Member(text)
	if err != nil {
		return nil, contract(err)
	}

	ctor, ok := mem.(*m.Method)
	if !ok || !ctor.Ctor {
		return nil, fmt.Errorf("constructor template for %s parsed as %T: %w", c.Name, mem, ErrContractViolation)
	}

	at := 0

	for i, member := range c.Members {
		if _, ok := member.(*m.Field); ok {
			at = i + 1
		}
	}

	ctor.BlankBefore = at > 0
	tx.InsertMember(c, at, ctor)

	slog.Debug("synthesized constructor", "class", c.Name, "position", at)

	return ctor, nil
}

func ensureSuperCall(tx *program.Tx, c *m.Class, ctor *m.Method) error {
	if c.Extends == nil {
		return nil
	}

	if _, ok := program.LeadingCtorCall(ctor); ok {
		return nil
	}

	if ctor.Body == nil {
		return fmt.Errorf("constructor of %s has no body: %w", c.Name, ErrContractViolation)
	}

	stmt, err := tx.Statement("super();")
	if err != nil {
		return contract(err)
	}

	tx.InsertStmt(ctor.Body, 0, stmt)

	return nil
}
