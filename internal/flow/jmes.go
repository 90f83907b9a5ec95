package flow

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jmespath/go-jmespath"
)

// EvalAny returns the raw value selected by the JMESPath expression.
// It will return nil and no error if the expression does not match anything.
func EvalAny(expression string, data any) (any, error) {
	v, err := jmespath.Search(expression, data)
	if err != nil {
		return nil, fmt.Errorf("jmespath: %w", err)
	}
	return v, nil
}

// Project applies a JMESPath expression to a read result. The value is round-tripped
// through JSON first so the expression sees the same field names as API clients do.
func Project(expression string, v any) (any, error) {
	if _, err := jmespath.Compile(expression); err != nil {
		return nil, fmt.Errorf("jmespath: %w", err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return EvalAny(expression, generic)
}
