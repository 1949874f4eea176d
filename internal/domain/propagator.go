package domain

import (
	"fmt"
	"log/slog"

	"cleanspring.dev/pkg/cleanspring/internal/domain/preconditions"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

// stereotypes mark classes the container instantiates itself.
var stereotypes = []string{"Component", "Service", "Repository", "Controller", "RestController", "Configuration"}

// migration carries one property from its declaring constructor through
// subclass constructors to every instantiation site.
type migration struct {
	tx      *program.Tx
	prop    Property
	outcome *Outcome
	params  *threader

	// setterSites maps each construction directly followed by a setter
	// call to that call. Filled before the first mutation.
	setterSites map[*m.New]preconditions.Construction
	done        map[*m.Method]bool
	supplying   map[m.Node]bool
}

// Migrate turns p into a constructor parameter of its class, threads it
// through subclasses and call sites, then removes the injection.
func Migrate(tx *program.Tx, p Property) (Outcome, error) {
	outcome := newOutcome()
	mg := &migration{
		tx:          tx,
		prop:        p,
		outcome:     outcome,
		params:      newThreader(tx, p, p.Class(), outcome),
		setterSites: map[*m.New]preconditions.Construction{},
		done:        map[*m.Method]bool{},
		supplying:   map[m.Node]bool{},
	}

	xmlProps, err := mg.collectSetterSites()
	if err != nil {
		return *outcome, err
	}

	owner := p.Class()
	if owner == nil {
		return *outcome, fmt.Errorf("%s has no enclosing class: %w", p.Name, ErrContractViolation)
	}

	ctor, err := Normalize(tx, owner)
	if err != nil {
		return *outcome, err
	}

	if err := mg.propagateOwner(ctor); err != nil {
		return *outcome, err
	}

	for _, tag := range xmlProps {
		tx.RenameTag(tag, "constructor-arg")
	}

	if err := mg.capstone(); err != nil {
		return *outcome, err
	}

	slog.Info("migrated to constructor injection",
		"class", owner.Name,
		"property", p.Name,
		"confidence", string(outcome.Confidence),
		"mutations", tx.Mutations())

	return *outcome, nil
}

func (mg *migration) collectSetterSites() ([]*m.XMLTag, error) {
	if mg.prop.Setter == nil {
		return nil, nil
	}

	ix := mg.tx.Index()

	var tags []*m.XMLTag

	for _, ref := range ix.References(mg.prop.Setter) {
		switch ref.Kind {
		case program.RefCall:
			call := ref.Element.(*m.Call)

			c, ok := preconditions.FindConstruction(ix, mg.prop.Setter, call, true)
			if !ok {
				return nil, fmt.Errorf("call of %s at %s does not follow a construction: %w",
					mg.prop.Setter.Name, describe(call), ErrContractViolation)
			}

			mg.setterSites[c.New] = c
		case program.RefXMLProperty:
			tags = append(tags, ref.Element.(*m.XMLTag))
		default:
			return nil, fmt.Errorf("%s reference to %s at %s: %w",
				ref.Kind, mg.prop.Setter.Name, describe(ref.Element), ErrContractViolation)
		}
	}

	return tags, nil
}

func (mg *migration) propagateOwner(ctor *m.Method) error {
	if ctor.Body == nil {
		return fmt.Errorf("constructor of %s has no body: %w", ctor.Name, ErrContractViolation)
	}

	refs := mg.tx.Index().References(ctor)
	name := freeName(ctor, mg.prop.Name)

	mg.done[ctor] = true
	mg.tx.AppendParam(ctor, mg.prop.param(name))

	stmt, err := mg.assignment(name)
	if err != nil {
		return err
	}

	mg.tx.AppendStmt(ctor.Body, stmt)

	return mg.dispatch(refs)
}

// assignment builds the statement storing the parameter into the field. A
// setter body is reused as written when the parameter keeps its name.
func (mg *migration) assignment(name string) (m.Stmt, error) {
	if mg.prop.Setter != nil && name == mg.prop.Name {
		if _, stmt, ok := mg.tx.Index().SetterAssignment(mg.prop.Setter); ok {
			return m.Clone(stmt), nil
		}
	}

	stmt, err := mg.tx.Statement(fmt.Sprintf("this.%s = %s;", mg.prop.Field.Name, name))

	return stmt, contract(err)
}

func (mg *migration) dispatch(refs []program.Reference) error {
	for _, ref := range refs {
		var err error

		switch ref.Kind {
		case program.RefImplicitSuperClass:
			sub := ref.Element.(*m.Class)
			if sub.Sort == m.ClassKindAnonymous {
				n, ok := sub.Parent().(*m.New)
				if !ok {
					return fmt.Errorf("anonymous class at %s outside new: %w", describe(sub), ErrContractViolation)
				}

				err = mg.rewriteNew(n)
			} else {
				err = mg.intoSubclass(sub)
			}
		case program.RefImplicitSuperCtor:
			err = mg.intoConstructor(ref.Element.(*m.Method), true)
		case program.RefCtorCall:
			ctor := m.EnclosingMethod(ref.Element)
			if ctor == nil || !ctor.Ctor {
				return fmt.Errorf("constructor call at %s outside a constructor: %w", describe(ref.Element), ErrContractViolation)
			}

			err = mg.intoConstructor(ctor, false)
		case program.RefNew:
			err = mg.rewriteNew(ref.Element.(*m.New))
		default:
			slog.Debug("skipping constructor reference", "kind", ref.Kind.String(), "at", describe(ref.Element))
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (mg *migration) intoSubclass(sub *m.Class) error {
	supplied := mg.supplies(sub)

	ctor, err := Normalize(mg.tx, sub)
	if err != nil {
		return err
	}

	if !supplied {
		return mg.fold(ctor)
	}

	return mg.thread(ctor)
}

func (mg *migration) intoConstructor(ctor *m.Method, needsSuper bool) error {
	if mg.done[ctor] {
		return nil
	}

	supplied := mg.supplies(ctor)

	if needsSuper {
		if err := ensureSuperCall(mg.tx, m.EnclosingClass(ctor), ctor); err != nil {
			return err
		}
	}

	if !supplied {
		return mg.fold(ctor)
	}

	return mg.thread(ctor)
}

// thread adds the parameter to a subclass constructor and forwards it
// through the leading super(...) or this(...) call.
func (mg *migration) thread(ctor *m.Method) error {
	mg.done[ctor] = true

	cc, ok := program.LeadingCtorCall(ctor)
	if !ok {
		return fmt.Errorf("constructor %s lacks a leading constructor call: %w", ctor.Name, ErrContractViolation)
	}

	refs := mg.tx.Index().References(ctor)
	name := freeName(ctor, mg.prop.Name)

	mg.tx.AppendParam(ctor, mg.prop.param(name))

	if err := mg.tx.AppendArg(cc, &m.Name{Ident: name}); err != nil {
		return contract(err)
	}

	copyImports(mg.tx, mg.prop.Class(), mg.prop, ctor)

	return mg.dispatch(refs)
}

// fold closes a propagation branch nobody can supply a value for: the
// constructor keeps its signature and passes the default upwards.
func (mg *migration) fold(ctor *m.Method) error {
	mg.done[ctor] = true

	cc, ok := program.LeadingCtorCall(ctor)
	if !ok {
		return fmt.Errorf("constructor %s lacks a leading constructor call: %w", ctor.Name, ErrContractViolation)
	}

	lit := defaultArg(mg.prop)
	mg.outcome.warn("%s: constructor of %s passes %s for %s", describe(ctor), m.EnclosingClass(ctor).Name, lit.Text, mg.prop.Name)

	return contract(mg.tx.AppendArg(cc, lit))
}

// supplies reports whether some instantiation reachable from target (a
// constructor, or a class relying on the implicit one) can provide a real
// value: a bean method, a setter call to merge, the container itself, or
// a subclass that does.
func (mg *migration) supplies(target m.Node) bool {
	if v, ok := mg.supplying[target]; ok {
		return v
	}

	mg.supplying[target] = false

	v := mg.computeSupplies(target)
	mg.supplying[target] = v

	return v
}

func (mg *migration) computeSupplies(target m.Node) bool {
	ix := mg.tx.Index()

	class, ok := target.(*m.Class)
	if !ok {
		class = m.EnclosingClass(target)
	}

	if managed(ix, class) {
		return true
	}

	refs := constructionRefs(ix, target)
	if len(refs) == 0 {
		return true
	}

	for _, ref := range refs {
		switch ref.Kind {
		case program.RefNew:
			n := ref.Element.(*m.New)
			if _, ok := mg.setterSites[n]; ok || program.EnclosingBeanMethod(n) != nil {
				return true
			}
		case program.RefImplicitSuperClass:
			sub := ref.Element.(*m.Class)
			if sub.Sort == m.ClassKindAnonymous {
				if program.EnclosingBeanMethod(sub) != nil {
					return true
				}
			} else if mg.supplies(sub) {
				return true
			}
		case program.RefImplicitSuperCtor:
			if mg.supplies(ref.Element) {
				return true
			}
		case program.RefCtorCall:
			if ctor := m.EnclosingMethod(ref.Element); ctor != nil && mg.supplies(ctor) {
				return true
			}
		}
	}

	return false
}

func managed(ix *program.Index, c *m.Class) bool {
	if c == nil {
		return false
	}

	for _, s := range stereotypes {
		if c.Mods.Find(s) != nil {
			return true
		}
	}

	for _, ref := range ix.References(c) {
		if ref.Kind == program.RefXMLBeanClass {
			return true
		}
	}

	return false
}

// constructionRefs returns the references that instantiate through target.
func constructionRefs(ix *program.Index, target m.Node) []program.Reference {
	var out []program.Reference

	for _, ref := range ix.References(target) {
		switch ref.Kind {
		case program.RefNew, program.RefCtorCall, program.RefImplicitSuperClass, program.RefImplicitSuperCtor:
			out = append(out, ref)
		}
	}

	return out
}
