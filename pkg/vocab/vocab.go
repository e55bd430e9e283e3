package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind classifies a TL predicate by the simulator-native name it maps to.
type Kind int

const (
	KindUnknown Kind = iota
	KindProperty
	KindState
	KindRelation
)

func (k Kind) String() string {
	switch k {
	case KindProperty:
		return "property"
	case KindState:
		return "state"
	case KindRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Predicate is a TL predicate resolved against the simulator vocabulary.
type Predicate struct {
	Name   string `json:"name"`
	Native string `json:"native"`
	Kind   Kind   `json:"kind"`
	Arity  int    `json:"arity"`
}

// GraphName returns the name the predicate takes in world-state graphs. A TL
// name with its own canonical form wins over the native name, so the native
// relation ON surfaces as ONTOP.
func (p Predicate) GraphName() string {
	if c, ok := stateTransform[p.Name]; ok {
		return c
	}
	return Canonical(p.Native)
}

// ConfigError reports a vocabulary file that is missing, unreadable or malformed.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("vocabulary %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// fileSchema mirrors the vocabulary JSON file. Every key is required.
type fileSchema struct {
	TLPredicates     []string              `json:"tl_predicates" validate:"required,min=1,dive,required"`
	Actions          map[string]ActionSpec `json:"actions" validate:"required"`
	SubgoalActions   map[string]ActionSpec `json:"subgoal_actions" validate:"required"`
	Properties       []string              `json:"properties" validate:"required"`
	VHStates         []string              `json:"vh_states" validate:"required"`
	VHRelations      []string              `json:"vh_relations" validate:"required"`
	TLPredicatesToVH map[string]string     `json:"tl_predicates_to_vh" validate:"required"`
	VHStatesToTL     map[string]string     `json:"vh_states_to_tl" validate:"required"`
	VHRelationsToTL  map[string]string     `json:"vh_relations_to_tl" validate:"required"`
}

var schemaValidate = validator.New()

// Vocabulary is the immutable predicate and action vocabulary for one run.
type Vocabulary struct {
	path string

	predicates      map[string]Predicate
	predicateOrder  []string
	actions         map[string]ActionSpec
	subgoalActions  map[string]ActionSpec
	properties      map[string]bool
	states          map[string]bool
	relations       map[string]bool
	tlToVH          map[string]string
	vhStatesToTL    map[string]string
	vhRelationsToTL map[string]string
	inconsistencies []string
}

// Load reads a vocabulary file. Predicates whose arity cannot be derived are
// logged as warnings and kept with KindUnknown and arity -1.
func Load(path string) (*Vocabulary, error) {
	return load(path, false)
}

// LoadStrict is like Load but rejects a vocabulary with underivable arities.
func LoadStrict(path string) (*Vocabulary, error) {
	return load(path, true)
}

func load(path string, strict bool) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	v, err := Parse(data)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	v.path = path
	for _, msg := range v.inconsistencies {
		slog.Warn("[VOCAB] predicate arity not derivable", "path", path, "detail", msg)
	}
	if names := v.Ambiguous(); len(names) > 0 {
		slog.Debug("[VOCAB] names read as predicates", "path", path, "names", names)
	}
	if strict && len(v.inconsistencies) > 0 {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("inconsistent predicates: %s", strings.Join(v.inconsistencies, "; "))}
	}
	return v, nil
}

// Parse builds a Vocabulary from raw JSON.
func Parse(data []byte) (*Vocabulary, error) {
	var raw fileSchema
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	if err := schemaValidate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag())
			}
			return nil, fmt.Errorf("invalid vocabulary: %s", strings.Join(fields, ", "))
		}
		return nil, fmt.Errorf("invalid vocabulary: %w", err)
	}

	v := &Vocabulary{
		predicates:      make(map[string]Predicate, len(raw.TLPredicates)),
		actions:         raw.Actions,
		subgoalActions:  raw.SubgoalActions,
		properties:      toSet(raw.Properties),
		states:          toSet(raw.VHStates),
		relations:       toSet(raw.VHRelations),
		tlToVH:          raw.TLPredicatesToVH,
		vhStatesToTL:    raw.VHStatesToTL,
		vhRelationsToTL: raw.VHRelationsToTL,
	}

	for _, name := range raw.TLPredicates {
		if _, dup := v.predicates[name]; dup {
			return nil, fmt.Errorf("duplicate tl predicate %q", name)
		}
		native, ok := v.tlToVH[name]
		if !ok {
			return nil, fmt.Errorf("tl predicate %q has no tl_predicates_to_vh mapping", name)
		}
		p := v.classify(name, native)
		if p.Kind == KindUnknown {
			v.inconsistencies = append(v.inconsistencies, fmt.Sprintf("%s -> %s", name, native))
		}
		v.predicates[name] = p
		v.predicateOrder = append(v.predicateOrder, name)
	}
	return v, nil
}

// classify applies the arity derivation rule: properties and matching states
// are unary, matching relations are binary.
func (v *Vocabulary) classify(name, native string) Predicate {
	p := Predicate{Name: name, Native: native, Kind: KindUnknown, Arity: -1}
	switch {
	case v.properties[native]:
		p.Kind, p.Arity = KindProperty, 1
	case v.states[native] && v.vhStatesToTL[native] == name:
		p.Kind, p.Arity = KindState, 1
	case v.relations[native] && v.vhRelationsToTL[native] == name:
		p.Kind, p.Arity = KindRelation, 2
	}
	return p
}

// Path returns the file the vocabulary was loaded from, if any.
func (v *Vocabulary) Path() string { return v.path }

// DeriveArity returns the derived arity of a TL predicate, or -1 if the
// predicate is unknown or its arity is not derivable.
func (v *Vocabulary) DeriveArity(predicate string) int {
	p, ok := v.predicates[predicate]
	if !ok {
		return -1
	}
	return p.Arity
}

// Predicate looks up a TL predicate.
func (v *Vocabulary) Predicate(name string) (Predicate, bool) {
	p, ok := v.predicates[name]
	return p, ok
}

// Predicates returns all predicates in declaration order.
func (v *Vocabulary) Predicates() []Predicate {
	out := make([]Predicate, len(v.predicateOrder))
	for i, name := range v.predicateOrder {
		out[i] = v.predicates[name]
	}
	return out
}

// PredicateNames returns the TL predicate names in declaration order.
func (v *Vocabulary) PredicateNames() []string {
	return append([]string(nil), v.predicateOrder...)
}

// IsPredicate reports whether name is a declared TL predicate.
func (v *Vocabulary) IsPredicate(name string) bool {
	_, ok := v.predicates[name]
	return ok
}

// IsSubgoalAction reports whether name may appear as an action in a subgoal plan.
func (v *Vocabulary) IsSubgoalAction(name string) bool {
	_, ok := v.subgoalActions[name]
	return ok
}

// SubgoalActionNames returns the subgoal action names, sorted.
func (v *Vocabulary) SubgoalActionNames() []string {
	return sortedKeys(v.subgoalActions)
}

// ActionNames returns every action in the full action table, sorted.
func (v *Vocabulary) ActionNames() []string {
	return sortedKeys(v.actions)
}

// ActionArity returns the declared arity of a subgoal action. Actions whose
// vocabulary entry carries no arity fall back to the built-in action table.
func (v *Vocabulary) ActionArity(name string) int {
	if spec, ok := v.subgoalActions[name]; ok && spec.Arity >= 0 {
		return spec.Arity
	}
	if va, ok := ValidActions[name]; ok {
		return va.Arity
	}
	return -1
}

// ScriptName returns the simulator script name for an action.
func (v *Vocabulary) ScriptName(name string) string {
	if va, ok := ValidActions[name]; ok {
		return va.ScriptName
	}
	if spec, ok := v.subgoalActions[name]; ok && spec.ScriptName != "" {
		return spec.ScriptName
	}
	return name
}

// Inconsistencies lists predicates whose arity could not be derived.
func (v *Vocabulary) Inconsistencies() []string {
	return append([]string(nil), v.inconsistencies...)
}

// Ambiguous lists the subgoal actions that are also TL predicates, in
// predicate order. Formulas read such names as predicates, so they never
// form action goals.
func (v *Vocabulary) Ambiguous() []string {
	var out []string
	for _, name := range v.predicateOrder {
		if _, ok := v.subgoalActions[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func sortedKeys(m map[string]ActionSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
