// Package validator collects per-field validation failures.
package validator

import (
	"encoding/json"
	"sort"
	"strings"
)

type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{
		Errors: make(map[string]string),
	}
}

// Error is returned by ToError; it carries the field->message map so the
// HTTP layer can render it as-is.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Fields)
}

func (v *Validator) ToError() error {
	if v == nil || !v.HasErrors() {
		return nil
	}
	fields := make(map[string]string, len(v.Errors))
	for k, msg := range v.Errors {
		fields[k] = msg
	}
	return &Error{Fields: fields}
}

func (v *Validator) HasErrors() bool {
	return len(v.Errors) != 0
}

// Check records msg under key unless cond holds. The first failure per key wins.
func (v *Validator) Check(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.Errors[key]; !ok {
		v.Errors[key] = msg
	}
}

func (v *Validator) CheckUsername(username string) {
	v.Check(strings.TrimSpace(username) != "", "username", "must be provided")
	v.Check(len(username) <= 255, "username", "must be atmost 255 characters")
}

func (v *Validator) CheckPassword(password string) {
	v.Check(strings.TrimSpace(password) != "", "password", "must be provided")
	v.Check(len(password) <= 72, "password", "must be atmost 72 characters long")
}

// PermittedValue reports whether value is one of permitted.
func PermittedValue[T comparable](value T, permitted ...T) bool {
	for _, p := range permitted {
		if value == p {
			return true
		}
	}
	return false
}
