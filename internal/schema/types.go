package schema

// Mode distinguishes the UI modality a field belongs to. Basic fields
// (pickers, selectors) take precedence over advanced fields (manual entry)
// when both feed the same canonical parameter.
type Mode string

const (
	ModeBasic    Mode = "basic"
	ModeAdvanced Mode = "advanced"
)

// ValidModes defines the allowed field modes.
var ValidModes = map[Mode]bool{
	ModeBasic:    true,
	ModeAdvanced: true,
}

// Kind is the declared value kind of a field. It drives payload coercion:
// numeric strings become numbers, comma-separated strings become arrays,
// "true"/"false" become booleans, and json strings are parsed.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindJSON    Kind = "json"
	KindArray   Kind = "array"
)

// ValidKinds defines the allowed value kinds.
var ValidKinds = map[Kind]bool{
	KindString:  true,
	KindNumber:  true,
	KindBoolean: true,
	KindJSON:    true,
	KindArray:   true,
}

// Unknown-operation policies for OperationRule. The policy is an explicit
// schema property so destructive actions never get a silent "read" default.
const (
	PolicyStrictThrow     = "strict-throw"
	PolicyFallbackDefault = "fallback-default"
)

// ValidPolicies defines the allowed unknown-value policies.
var ValidPolicies = map[string]bool{
	PolicyStrictThrow:     true,
	PolicyFallbackDefault: true,
}

// FieldSpec describes one configurable input and its visibility rule.
type FieldSpec struct {
	// ID uniquely identifies the field within a schema.
	ID string `json:"id" yaml:"id"`

	// CanonicalParam is the logical parameter this field supplies.
	// Defaults to ID when empty. Several fields may share one canonical
	// parameter (e.g. a folder picker and a manual folder input).
	CanonicalParam string `json:"canonicalParam,omitempty" yaml:"canonicalParam,omitempty"`

	// Mode is "basic" or "advanced". Defaults to "basic" when empty.
	Mode Mode `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Condition gates the field's visibility. A nil condition means the
	// field is always visible.
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`

	// DependsOn lists field ids whose effective values must be non-empty
	// before this field is ready. Edges must form a DAG.
	DependsOn []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`

	// Required marks the field's canonical parameter as required whenever
	// the field is active, independent of per-action requirement rules.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`

	// Kind is the declared value kind. Defaults to "string" when empty.
	Kind Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Canonical returns the canonical parameter id, falling back to the field id.
func (f *FieldSpec) Canonical() string {
	if f.CanonicalParam != "" {
		return f.CanonicalParam
	}
	return f.ID
}

// CanonicalGroup declares the precedence order for one canonical parameter.
// Fields are listed highest-precedence first.
type CanonicalGroup struct {
	CanonicalParam string   `json:"canonicalParam" yaml:"canonicalParam"`
	Fields         []string `json:"fields" yaml:"fields"`
}

// OperationRule maps a discriminator field's value to a backend action id.
type OperationRule struct {
	// Discriminator is the field id whose canonical value selects the action.
	Discriminator string `json:"discriminator" yaml:"discriminator"`

	// Mapping maps discriminator values to action ids.
	Mapping map[string]string `json:"mapping" yaml:"mapping"`

	// Default is the action id used on a mapping miss under
	// fallback-default policy.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`

	// UnknownPolicy is "strict-throw" or "fallback-default".
	// Defaults to "strict-throw": failing loudly is the safe default.
	UnknownPolicy string `json:"unknownValuePolicy,omitempty" yaml:"unknownValuePolicy,omitempty"`
}

// Policy returns the effective unknown-value policy.
func (r *OperationRule) Policy() string {
	if r.UnknownPolicy == "" {
		return PolicyStrictThrow
	}
	return r.UnknownPolicy
}

// ActionRule declares the parameter shape and requirement rules for one
// backend action. All names refer to canonical parameter ids, never raw
// field ids.
type ActionRule struct {
	// ID is the backend action id (opaque to this engine).
	ID string `json:"id" yaml:"id"`

	// Params lists the canonical parameters included in this action's
	// payload. The compiled payload contains exactly these keys (empty
	// optional values are omitted).
	Params []string `json:"params" yaml:"params"`

	// Requires lists canonical parameters that must be non-empty.
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`

	// RequiresAny lists composite rules: each inner list is satisfied when
	// at least one of its canonical parameters is non-empty.
	RequiresAny [][]string `json:"requiresAny,omitempty" yaml:"requiresAny,omitempty"`

	// Defaults maps canonical parameters to the raw value substituted when
	// the resolved value is empty. Defaults apply before requirement checks
	// and coercion, and only for this action.
	Defaults map[string]string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// Document is the raw, deserialized form of a schema before compilation.
// YAML and CUE ingestion both produce this model losslessly.
type Document struct {
	// BlockType names the integration block this schema configures.
	BlockType string `json:"blockType" yaml:"blockType"`

	Fields    []FieldSpec      `json:"fields" yaml:"fields"`
	Groups    []CanonicalGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
	Operation OperationRule    `json:"operation" yaml:"operation"`
	Actions   []ActionRule     `json:"actions" yaml:"actions"`
}

// Schema is the compiled, immutable aggregate consumed at request time.
// Construct only via the compiler package; a Schema is safe for concurrent
// use and must never be mutated after construction.
type Schema struct {
	BlockType string
	Fields    []FieldSpec
	Operation OperationRule
	Actions   []ActionRule

	// Groups holds the total precedence order per canonical parameter,
	// highest precedence first. Every canonical parameter referenced by a
	// field appears here, including single-field groups.
	Groups map[string][]string

	// FieldOrder is the dependency-respecting topological order of field
	// ids, stable with respect to declaration order.
	FieldOrder []string

	fieldIndex  map[string]*FieldSpec
	actionIndex map[string]*ActionRule
}

// NewSchema assembles a compiled Schema. Intended for the compiler package
// and for tests; it performs no validation.
func NewSchema(doc *Document, groups map[string][]string, fieldOrder []string) *Schema {
	s := &Schema{
		BlockType:   doc.BlockType,
		Fields:      doc.Fields,
		Operation:   doc.Operation,
		Actions:     doc.Actions,
		Groups:      groups,
		FieldOrder:  fieldOrder,
		fieldIndex:  make(map[string]*FieldSpec, len(doc.Fields)),
		actionIndex: make(map[string]*ActionRule, len(doc.Actions)),
	}
	for i := range s.Fields {
		s.fieldIndex[s.Fields[i].ID] = &s.Fields[i]
	}
	for i := range s.Actions {
		s.actionIndex[s.Actions[i].ID] = &s.Actions[i]
	}
	return s
}

// Field returns the field spec for id, or nil if unknown.
func (s *Schema) Field(id string) *FieldSpec {
	return s.fieldIndex[id]
}

// Action returns the action rule for id, or nil if unknown.
func (s *Schema) Action(id string) *ActionRule {
	return s.actionIndex[id]
}
