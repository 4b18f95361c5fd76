package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var errNoRows = errors.New("query returned no rows")

// Querier is the subset of Neo4jClient the stores depend on
type Querier interface {
	ExecuteRead(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error)
	ExecuteWrite(ctx context.Context, query string, params map[string]interface{}) error
	ExecuteWriteWithResult(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error)
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asStrings(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...)
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

func asTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func asTimePtr(v interface{}) *time.Time {
	if v == nil {
		return nil
	}
	t := asTime(v)
	if t.IsZero() {
		return nil
	}
	return &t
}

func asIntPtr(v interface{}) *int {
	if v == nil {
		return nil
	}
	n := asInt(v)
	return &n
}

func asProps(v interface{}) (map[string]interface{}, error) {
	props, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected record value %T", v)
	}
	return props, nil
}

// timeParam converts optional timestamps to a driver parameter, nil stays null
func timeParam(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func jsonParam(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(raw), nil
}

func decodeJSON(v interface{}, out interface{}) error {
	raw := asString(v)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
