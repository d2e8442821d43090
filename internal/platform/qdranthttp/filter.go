package qdranthttp

import (
	"encoding/json"
	"fmt"
	"sort"
)

// BuildFilter translates a flat payload filter into the Qdrant filter DSL.
// A scalar value becomes an exact match condition, a slice becomes a
// match-any condition. Keys are processed in sorted order so the produced
// request body is deterministic.
func BuildFilter(filter map[string]any) (map[string]any, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	must := make([]any, 0, len(keys))
	for _, key := range keys {
		cond, err := fieldCondition(key, filter[key])
		if err != nil {
			return nil, err
		}
		must = append(must, cond)
	}
	return map[string]any{"must": must}, nil
}

func fieldCondition(field string, value any) (map[string]any, error) {
	const op = "filter_translate"

	if values, err := toScalarSlice(value); err == nil {
		if len(values) == 0 {
			return nil, opErr(op, OperationErrorValidation,
				fmt.Sprintf("field %q has empty membership list", field), nil)
		}
		return map[string]any{
			"key": field,
			"match": map[string]any{
				"any": values,
			},
		}, nil
	}

	scalar, ok := toScalarValue(value)
	if !ok {
		return nil, opErr(op, OperationErrorValidation,
			fmt.Sprintf("field %q expects scalar or scalar slice, got %T", field, value), nil)
	}
	return matchCondition(field, scalar), nil
}

func matchCondition(key string, value any) map[string]any {
	return map[string]any{
		"key": key,
		"match": map[string]any{
			"value": value,
		},
	}
}

func toScalarSlice(value any) ([]any, error) {
	switch typed := value.(type) {
	case []any:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			scalar, ok := toScalarValue(v)
			if !ok {
				return nil, fmt.Errorf("expected scalar, got %T", v)
			}
			out = append(out, scalar)
		}
		return out, nil
	case []string:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, nil
	case []int:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, nil
	case []float64:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected scalar slice, got %T", value)
	}
}

func toScalarValue(value any) (any, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case bool:
		return typed, true
	case int:
		return typed, true
	case int32:
		return int(typed), true
	case int64:
		return typed, true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	case json.Number:
		if i, err := typed.Int64(); err == nil {
			return i, true
		}
		if f, err := typed.Float64(); err == nil {
			return f, true
		}
		return nil, false
	default:
		return nil, false
	}
}
