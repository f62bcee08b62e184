package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/formwell/formwell/internal/schema"
)

// CompileDocument parses a CUE value into a schema Document.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the schema struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`schema: gmail: { ... }`)
//	doc, err := CompileDocument(v.LookupPath(cue.ParsePath("schema.gmail")))
//
// The struct label supplies blockType when the document omits it.
func CompileDocument(v cue.Value) (*schema.Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	doc := &schema.Document{}

	// Block type defaults to the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		doc.BlockType = labels[len(labels)-1].String()
	}
	btVal := v.LookupPath(cue.ParsePath("blockType"))
	if btVal.Exists() {
		bt, err := btVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		doc.BlockType = bt
	}

	var err error
	doc.Fields, err = parseFields(v)
	if err != nil {
		return nil, err
	}
	if len(doc.Fields) == 0 {
		return nil, &CompileError{
			Field:   "fields",
			Message: "at least one field is required",
			Pos:     v.Pos(),
		}
	}

	doc.Groups, err = parseGroups(v)
	if err != nil {
		return nil, err
	}

	opVal := v.LookupPath(cue.ParsePath("operation"))
	if !opVal.Exists() {
		return nil, &CompileError{
			Field:   "operation",
			Message: "operation rule is required",
			Pos:     v.Pos(),
		}
	}
	doc.Operation, err = parseOperation(opVal)
	if err != nil {
		return nil, err
	}

	doc.Actions, err = parseActions(v)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// parseFields parses the fields list.
func parseFields(v cue.Value) ([]schema.FieldSpec, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, nil
	}

	iter, err := fieldsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []schema.FieldSpec
	for iter.Next() {
		f, err := parseField(iter.Value())
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func parseField(v cue.Value) (schema.FieldSpec, error) {
	var f schema.FieldSpec

	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return f, &CompileError{Field: "fields.id", Message: "field id is required", Pos: v.Pos()}
	}
	id, err := idVal.String()
	if err != nil {
		return f, formatCUEError(err)
	}
	f.ID = id

	if s, ok, err := optionalString(v, "canonicalParam"); err != nil {
		return f, err
	} else if ok {
		f.CanonicalParam = s
	}
	if s, ok, err := optionalString(v, "mode"); err != nil {
		return f, err
	} else if ok {
		f.Mode = schema.Mode(s)
	}
	if s, ok, err := optionalString(v, "kind"); err != nil {
		return f, err
	} else if ok {
		f.Kind = schema.Kind(s)
	}

	reqVal := v.LookupPath(cue.ParsePath("required"))
	if reqVal.Exists() {
		required, err := reqVal.Bool()
		if err != nil {
			return f, formatCUEError(err)
		}
		f.Required = required
	}

	depVal := v.LookupPath(cue.ParsePath("dependsOn"))
	if depVal.Exists() {
		deps, err := stringList(depVal)
		if err != nil {
			return f, err
		}
		f.DependsOn = deps
	}

	condVal := v.LookupPath(cue.ParsePath("condition"))
	if condVal.Exists() {
		cond, err := parseCondition(condVal)
		if err != nil {
			return f, err
		}
		f.Condition = cond
	}

	return f, nil
}

// parseCondition parses a condition struct, recursing into the "and" chain.
func parseCondition(v cue.Value) (*schema.Condition, error) {
	cond := &schema.Condition{}

	fieldVal := v.LookupPath(cue.ParsePath("field"))
	if !fieldVal.Exists() {
		return nil, &CompileError{Field: "condition.field", Message: "condition field is required", Pos: v.Pos()}
	}
	field, err := fieldVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	cond.Field = field

	valueVal := v.LookupPath(cue.ParsePath("value"))
	if !valueVal.Exists() {
		return nil, &CompileError{Field: "condition.value", Message: "condition value is required", Pos: v.Pos()}
	}
	cond.Value, err = parseConditionValue(valueVal)
	if err != nil {
		return nil, err
	}

	negVal := v.LookupPath(cue.ParsePath("negate"))
	if negVal.Exists() {
		negate, err := negVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		cond.Negate = negate
	}

	andVal := v.LookupPath(cue.ParsePath("and"))
	if andVal.Exists() {
		and, err := parseCondition(andVal)
		if err != nil {
			return nil, err
		}
		cond.And = and
	}

	return cond, nil
}

// parseConditionValue accepts a scalar or a list of scalars.
func parseConditionValue(v cue.Value) (schema.ConditionValue, error) {
	if v.Kind() == cue.ListKind {
		iter, err := v.List()
		if err != nil {
			return schema.ConditionValue{}, formatCUEError(err)
		}
		values := []string{}
		for iter.Next() {
			s, err := scalarToString(iter.Value())
			if err != nil {
				return schema.ConditionValue{}, err
			}
			values = append(values, s)
		}
		return schema.ConditionValue{Values: values, List: true}, nil
	}

	s, err := scalarToString(v)
	if err != nil {
		return schema.ConditionValue{}, err
	}
	return schema.Scalar(s), nil
}

// scalarToString renders a CUE scalar to its literal string form.
func scalarToString(v cue.Value) (string, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return "", formatCUEError(err)
		}
		return strconv.FormatInt(n, 10), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return "", formatCUEError(err)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return "", formatCUEError(err)
		}
		return strconv.FormatBool(b), nil
	default:
		return "", &CompileError{
			Field:   "condition.value",
			Message: fmt.Sprintf("unsupported scalar kind %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// parseGroups parses the optional canonical groups list.
func parseGroups(v cue.Value) ([]schema.CanonicalGroup, error) {
	groupsVal := v.LookupPath(cue.ParsePath("groups"))
	if !groupsVal.Exists() {
		return nil, nil
	}

	iter, err := groupsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var groups []schema.CanonicalGroup
	for iter.Next() {
		gv := iter.Value()
		var g schema.CanonicalGroup

		cpVal := gv.LookupPath(cue.ParsePath("canonicalParam"))
		if !cpVal.Exists() {
			return nil, &CompileError{Field: "groups.canonicalParam", Message: "canonicalParam is required", Pos: gv.Pos()}
		}
		g.CanonicalParam, err = cpVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		fieldsVal := gv.LookupPath(cue.ParsePath("fields"))
		if !fieldsVal.Exists() {
			return nil, &CompileError{Field: "groups.fields", Message: "group fields are required", Pos: gv.Pos()}
		}
		g.Fields, err = stringList(fieldsVal)
		if err != nil {
			return nil, err
		}

		groups = append(groups, g)
	}
	return groups, nil
}

// parseOperation parses the operation rule struct.
func parseOperation(v cue.Value) (schema.OperationRule, error) {
	var op schema.OperationRule

	discVal := v.LookupPath(cue.ParsePath("discriminator"))
	if !discVal.Exists() {
		return op, &CompileError{Field: "operation.discriminator", Message: "discriminator is required", Pos: v.Pos()}
	}
	disc, err := discVal.String()
	if err != nil {
		return op, formatCUEError(err)
	}
	op.Discriminator = disc

	mappingVal := v.LookupPath(cue.ParsePath("mapping"))
	if mappingVal.Exists() {
		op.Mapping = make(map[string]string)
		iter, iterErr := mappingVal.Fields()
		if iterErr != nil {
			return op, formatCUEError(iterErr)
		}
		for iter.Next() {
			actionID, err := iter.Value().String()
			if err != nil {
				return op, formatCUEError(err)
			}
			op.Mapping[iter.Label()] = actionID
		}
	}

	if s, ok, err := optionalString(v, "default"); err != nil {
		return op, err
	} else if ok {
		op.Default = s
	}
	if s, ok, err := optionalString(v, "unknownValuePolicy"); err != nil {
		return op, err
	} else if ok {
		op.UnknownPolicy = s
	}

	return op, nil
}

// parseActions parses the actions list.
func parseActions(v cue.Value) ([]schema.ActionRule, error) {
	actionsVal := v.LookupPath(cue.ParsePath("actions"))
	if !actionsVal.Exists() {
		return nil, nil
	}

	iter, err := actionsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var actions []schema.ActionRule
	for iter.Next() {
		av := iter.Value()
		var a schema.ActionRule

		idVal := av.LookupPath(cue.ParsePath("id"))
		if !idVal.Exists() {
			return nil, &CompileError{Field: "actions.id", Message: "action id is required", Pos: av.Pos()}
		}
		a.ID, err = idVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		if paramsVal := av.LookupPath(cue.ParsePath("params")); paramsVal.Exists() {
			a.Params, err = stringList(paramsVal)
			if err != nil {
				return nil, err
			}
		}
		if reqVal := av.LookupPath(cue.ParsePath("requires")); reqVal.Exists() {
			a.Requires, err = stringList(reqVal)
			if err != nil {
				return nil, err
			}
		}
		if anyVal := av.LookupPath(cue.ParsePath("requiresAny")); anyVal.Exists() {
			listIter, listErr := anyVal.List()
			if listErr != nil {
				return nil, formatCUEError(listErr)
			}
			for listIter.Next() {
				alt, err := stringList(listIter.Value())
				if err != nil {
					return nil, err
				}
				a.RequiresAny = append(a.RequiresAny, alt)
			}
		}
		if defVal := av.LookupPath(cue.ParsePath("defaults")); defVal.Exists() {
			a.Defaults = make(map[string]string)
			defIter, defErr := defVal.Fields()
			if defErr != nil {
				return nil, formatCUEError(defErr)
			}
			for defIter.Next() {
				s, err := scalarToString(defIter.Value())
				if err != nil {
					return nil, err
				}
				a.Defaults[defIter.Label()] = s
			}
		}

		actions = append(actions, a)
	}
	return actions, nil
}

// optionalString reads an optional string attribute.
func optionalString(v cue.Value, path string) (string, bool, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return "", false, nil
	}
	s, err := val.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

// stringList reads a list of strings.
func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError reports a structural defect found while parsing a CUE schema
// document, with position info when CUE provides it.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	if cueErr, ok := err.(errors.Error); ok {
		return &CompileError{
			Field:   "cue",
			Message: errors.Details(cueErr, nil),
			Pos:     cueErr.Position(),
		}
	}
	return err
}
