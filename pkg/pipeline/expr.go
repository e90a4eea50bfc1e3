package pipeline

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"

	"github.com/adfharrison1/go-ape/pkg/domain"
	"github.com/adfharrison1/go-ape/pkg/engine"
)

var mapType = reflect.TypeOf(map[string]interface{}{})

// Evaluator is a compiled CEL expression evaluated once per record.
//
// Variables available to every expression:
//
//	record  map(string, dyn)  the current record (empty for mapValue)
//	index   int               position of the record in the collection
//	count   int               number of records in the collection
//	key     string            the target field, where the step has one
//	value   dyn               the target field's current value (mapValue)
type Evaluator struct {
	Expression string
	program    cel.Program
}

var celEnv *cel.Env

func init() {
	env, err := cel.NewEnv(
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("index", cel.IntType),
		cel.Variable("count", cel.IntType),
		cel.Variable("key", cel.StringType),
		cel.Variable("value", cel.DynType),
	)
	if err != nil {
		panic(fmt.Sprintf("error creating CEL environment: %v", err))
	}
	celEnv = env
}

// NewEvaluator compiles expression
func NewEvaluator(expression string) (*Evaluator, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression can't be empty")
	}
	ast, issues := celEnv.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error compiling CEL expression %q: %w", expression, issues.Err())
	}
	p, err := celEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("error creating program: %w", err)
	}
	return &Evaluator{
		Expression: expression,
		program:    p,
	}, nil
}

// Evaluate runs the expression and returns a native Go value
func (e *Evaluator) Evaluate(rec domain.Record, key string, value interface{}, index, count int) (interface{}, error) {
	if rec == nil {
		rec = domain.Record{}
	}
	out, _, err := e.program.Eval(map[string]interface{}{
		"record": map[string]interface{}(rec),
		"index":  index,
		"count":  count,
		"key":    key,
		"value":  value,
	})
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", e.Expression, err)
	}
	return native(out)
}

// native converts CEL maps and lists into plain Go values
func native(v ref.Val) (interface{}, error) {
	switch v.Type().TypeName() {
	case "map":
		m, err := v.ConvertToNative(mapType)
		if err != nil {
			return nil, fmt.Errorf("error converting map result: %w", err)
		}
		return m, nil
	case "list":
		l, err := v.ConvertToNative(reflect.TypeOf([]interface{}{}))
		if err != nil {
			return nil, fmt.Errorf("error converting list result: %w", err)
		}
		return l, nil
	case "null_type":
		return nil, nil
	default:
		return v.Value(), nil
	}
}

// MapFunc adapts the evaluator to a whole-record map; the expression must
// produce a map
func (e *Evaluator) MapFunc() engine.MapFunc {
	return func(rec domain.Record, index int, data domain.Collection) (domain.Record, error) {
		out, err := e.Evaluate(rec, "", nil, index, len(data))
		if err != nil {
			return nil, err
		}
		m, ok := out.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("expression %q produced %T, want a map", e.Expression, out)
		}
		return domain.Record(m), nil
	}
}

// MapValueFunc adapts the evaluator to a single field transform. The
// expression sees an empty record; only value and key describe the field.
func (e *Evaluator) MapValueFunc() engine.MapValueFunc {
	return func(value interface{}, key string, index int, data domain.Collection) (interface{}, error) {
		return e.Evaluate(nil, key, value, index, len(data))
	}
}

// GenerateValueFunc adapts the evaluator to a computed field
func (e *Evaluator) GenerateValueFunc() engine.GenerateValueFunc {
	return func(rec domain.Record, key string, index int, data domain.Collection) (interface{}, error) {
		return e.Evaluate(rec, key, rec[key], index, len(data))
	}
}
