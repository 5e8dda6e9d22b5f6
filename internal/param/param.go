// Package param reads typed values out of configuration maps.
// Maps decoded from JSON (with UseNumber) and from YAML
// represent numbers differently;
// these helpers accept either.
package param

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// String returns conf[key] if it is a string.
func String(conf map[string]interface{}, key string) (string, bool) {
	s, ok := conf[key].(string)
	return s, ok
}

// RequireString is like String but reports a missing value as an error.
func RequireString(conf map[string]interface{}, key string) (string, error) {
	s, ok := String(conf, key)
	if !ok || s == "" {
		return "", errors.Errorf(`missing "%s" parameter`, key)
	}
	return s, nil
}

// Int returns conf[key] as an int.
func Int(conf map[string]interface{}, key string) (int, bool) {
	switch v := conf[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// Bool returns conf[key] if it is a bool.
func Bool(conf map[string]interface{}, key string) (bool, bool) {
	b, ok := conf[key].(bool)
	return b, ok
}

// Duration returns conf[key] as a duration.
// Strings are parsed with time.ParseDuration;
// numbers are taken as milliseconds.
func Duration(conf map[string]interface{}, key string) (time.Duration, bool) {
	if s, ok := conf[key].(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, false
		}
		return d, true
	}
	if n, ok := Int(conf, key); ok {
		return time.Duration(n) * time.Millisecond, true
	}
	return 0, false
}

// Map returns conf[key] if it is a nested map.
func Map(conf map[string]interface{}, key string) (map[string]interface{}, bool) {
	m, ok := conf[key].(map[string]interface{})
	return m, ok
}
