// Package preconditions decides whether an injected field or setter can be
// moved to constructor injection without changing behavior. Rules are
// declared in a table and grouped into versioned profiles.
package preconditions

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

var (
	// ErrUnknownProfile is returned for a profile name that is not registered.
	ErrUnknownProfile = errors.New("unknown rule profile")

	// ErrUnknownRule is returned when enable/disable names a rule that does not exist.
	ErrUnknownRule = errors.New("unknown rule")
)

// Subject is the kind of declaration a rule applies to.
type Subject int

// Rule subjects.
const (
	SubjectField Subject = iota
	SubjectSetter
)

func (s Subject) String() string {
	if s == SubjectSetter {
		return "setter"
	}

	return "field"
}

// RuleID names a rule in configuration and logs.
type RuleID string

// Rule identifiers.
const (
	FieldInjected              RuleID = "field.injected"
	FieldNoAssignments         RuleID = "field.no-assignments"
	FieldNoShadowing           RuleID = "field.no-shadowing"
	FieldSoleAssignment        RuleID = "field.sole-assignment"
	ClassNotAnonymous          RuleID = "class.not-anonymous"
	ClassNotTestContext        RuleID = "class.not-test-context"
	ClassNotTestNGContext      RuleID = "class.not-testng-context"
	ClassNotEntityListener     RuleID = "class.not-entity-listener"
	ClassNotServlet            RuleID = "class.not-servlet"
	ClassSingleConstructor     RuleID = "class.single-constructor"
	ClassNoCalledBeanUsage     RuleID = "class.no-called-bean-usage"
	SetterName                 RuleID = "setter.name"
	SetterSignature            RuleID = "setter.signature"
	SetterAssignsField         RuleID = "setter.assigns-field"
	SetterAutowired            RuleID = "setter.autowired"
	SetterCallsAfterCtor       RuleID = "setter.calls-after-construction"
	SetterCallsAfterCtorOrSole RuleID = "setter.calls-after-construction-or-sole"
	SetterNoXMLUsage           RuleID = "setter.no-xml-usage"
)

// Target is the declaration under evaluation. Field is the assigned field
// for setter targets, or nil when the setter body does not match.
type Target struct {
	Class  *m.Class
	Field  *m.Field
	Setter *m.Method
}

// Subject reports whether t is a field or a setter target.
func (t Target) Subject() Subject {
	if t.Setter != nil {
		return SubjectSetter
	}

	return SubjectField
}

func (t Target) String() string {
	owner := "?"
	if t.Class != nil {
		owner = t.Class.Name
	}

	switch {
	case t.Setter != nil:
		return owner + "." + t.Setter.Name + "()"
	case t.Field != nil:
		return owner + "." + t.Field.Name
	}

	return owner
}

// Check evaluates one rule. It must not mutate the tree.
type Check func(ix *program.Index, t Target) bool

// Rule is one entry of the rule table.
type Rule struct {
	ID          RuleID
	Subjects    []Subject
	Description string
	Check       Check
}

// Applies reports whether the rule is meant for subject s.
func (r Rule) Applies(s Subject) bool {
	return slices.Contains(r.Subjects, s)
}

var (
	fieldOnly  = []Subject{SubjectField}
	setterOnly = []Subject{SubjectSetter}
	both       = []Subject{SubjectField, SubjectSetter}
)

// table lists every rule in evaluation order: cheap structural checks
// first, reference searches last.
var table = []Rule{
	{SetterName, setterOnly, "name matches set<Property>", setterNameCheck},
	{SetterSignature, setterOnly, "one parameter and void return", setterSignature},
	{SetterAutowired, setterOnly, "@Autowired on the setter", setterAutowired},
	{FieldInjected, fieldOnly, "@Autowired or @Value on the field", fieldInjected},
	{ClassNotAnonymous, both, "owning class is not anonymous", notAnonymous},
	{ClassSingleConstructor, both, "at most one constructor, without trailing varargs", singleConstructor},
	{SetterAssignsField, setterOnly, "body is the single statement this.f = param", setterAssignsField},
	{ClassNotTestContext, both, "no @ContextConfiguration on the class or an ancestor", notTestContext},
	{ClassNotTestNGContext, both, "class does not extend AbstractTestNGSpringContextTests", notTestNGContext},
	{FieldNoAssignments, fieldOnly, "no assignment writes the field", noAssignments},
	{FieldSoleAssignment, setterOnly, "the setter is the only writer of the field", soleAssignment},
	{FieldNoShadowing, both, "no same-named field in an ancestor or descendant", noShadowing},
	{ClassNotEntityListener, both, "class is not named in @EntityListeners", notEntityListener},
	{ClassNotServlet, both, "class is not a <servlet-class> in a deployment descriptor", notServlet},
	{SetterNoXMLUsage, setterOnly, "no <property> tag refers to the setter", noXMLUsage},
	{SetterCallsAfterCtor, setterOnly, "every call directly follows the construction of its receiver", callsAfterConstruction},
	{SetterCallsAfterCtorOrSole, setterOnly, "as above, also accepting receivers assigned once from new", callsAfterConstructionOrSole},
	{ClassNoCalledBeanUsage, both, "not instantiated inside a @Bean method that is called directly", noCalledBeanUsage},
}

// Rules returns a copy of the rule table.
func Rules() []Rule {
	return slices.Clone(table)
}

// Lookup returns the rule registered under id.
func Lookup(id RuleID) (Rule, bool) {
	for _, r := range table {
		if r.ID == id {
			return r, true
		}
	}

	return Rule{}, false
}

// RuleSet is a named, versioned selection of rules.
type RuleSet struct {
	Name    string
	Version int
	Rules   []RuleID
}

// Has reports whether the set contains id.
func (s RuleSet) Has(id RuleID) bool {
	return slices.Contains(s.Rules, id)
}

// DefaultProfile is used when no profile is configured.
const DefaultProfile = "clean"

var injectRules = []RuleID{
	FieldInjected, FieldNoAssignments, ClassNotAnonymous, ClassNotTestContext,
	FieldNoShadowing, ClassSingleConstructor, ClassNoCalledBeanUsage,
	SetterName, SetterSignature, SetterAssignsField, SetterAutowired,
	FieldSoleAssignment, SetterCallsAfterCtor,
}

var profiles = map[string]RuleSet{
	"inject": {Name: "inject", Version: 1, Rules: injectRules},
	"clean": {Name: "clean", Version: 2, Rules: replace(
		with(injectRules, ClassNotEntityListener, ClassNotServlet, ClassNotTestNGContext),
		SetterCallsAfterCtor, SetterCallsAfterCtorOrSole,
	)},
	"strict": {Name: "strict", Version: 3, Rules: with(injectRules,
		ClassNotEntityListener, ClassNotServlet, ClassNotTestNGContext, SetterNoXMLUsage,
	)},
	"lenient": {Name: "lenient", Version: 3, Rules: without(replace(
		with(injectRules, ClassNotEntityListener, ClassNotServlet, ClassNotTestNGContext),
		SetterCallsAfterCtor, SetterCallsAfterCtorOrSole,
	), ClassNoCalledBeanUsage)},
}

// Profile returns the rule set registered under name.
func Profile(name string) (RuleSet, error) {
	if name == "" {
		name = DefaultProfile
	}

	set, ok := profiles[name]
	if !ok {
		return RuleSet{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownProfile, name, ProfileNames())
	}

	set.Rules = slices.Clone(set.Rules)

	return set, nil
}

// ProfileNames lists the registered profiles.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func with(base []RuleID, extra ...RuleID) []RuleID {
	out := slices.Clone(base)

	for _, id := range extra {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}

	return out
}

func without(base []RuleID, drop ...RuleID) []RuleID {
	return slices.DeleteFunc(slices.Clone(base), func(id RuleID) bool {
		return slices.Contains(drop, id)
	})
}

func replace(base []RuleID, old, repl RuleID) []RuleID {
	out := slices.Clone(base)
	if i := slices.Index(out, old); i >= 0 {
		out[i] = repl
	}

	return out
}
