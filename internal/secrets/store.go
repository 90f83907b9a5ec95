package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Store is a read-only key-value source of configuration strings.
type Store interface {
	Lookup(name string) (string, bool)
}

// Env reads secrets from the process environment. A name is looked up as given first,
// then in upper case, so both firebase_admin_sdk_type and FIREBASE_ADMIN_SDK_TYPE work.
// An empty value under the exact name does not hide the upper-case one.
type Env struct{}

func (Env) Lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if ok && v != "" {
		return v, true
	}
	if up, upOK := os.LookupEnv(strings.ToUpper(name)); upOK {
		return up, true
	}
	return v, ok
}

// Map is an in-memory store.
type Map map[string]string

func (m Map) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Chain returns the first non-empty value found across its stores.
type Chain []Store

func (c Chain) Lookup(name string) (string, bool) {
	found := false
	for _, s := range c {
		v, ok := s.Lookup(name)
		if !ok {
			continue
		}
		if v != "" {
			return v, true
		}
		found = true
	}
	return "", found
}

// ParseYAML reads a secrets document. Top-level scalars are kept as is; one level of
// nesting is flattened to "<section>_<key>", so
//
//	firebase:
//	  admin_sdk_type: service_account
//
// yields firebase_admin_sdk_type.
func ParseYAML(b []byte) (Map, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse secrets: %w", err)
	}
	out := make(Map, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case map[string]any:
			for sk, sv := range t {
				out[k+"_"+sk] = scalar(sv)
			}
		case nil:
			out[k] = ""
		default:
			out[k] = scalar(t)
		}
	}
	return out, nil
}

// LoadFile reads a YAML secrets file. A missing file yields an empty store and no error,
// the environment may still provide every secret.
func LoadFile(path string) (Map, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Map{}, nil
		}
		return nil, fmt.Errorf("read secrets file %s: %w", path, err)
	}
	return ParseYAML(b)
}

func scalar(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
