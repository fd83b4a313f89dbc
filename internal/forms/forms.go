// Package forms maps raw submitted fields onto domain records through
// explicit per-entity field tables and collects field-level errors.
package forms

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// Values holds the raw submitted fields of one request.
type Values map[string]string

// Errors maps a field name to its validation messages.
type Errors map[string][]string

// Add appends msg to the messages of field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Has reports whether field has at least one error.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// First returns the first message of field or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the names of the failing fields in sorted order.
func (e Errors) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Valid reports whether no errors were collected.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// FieldError is returned by an assign step to reject a value with a message
// shown next to the field.
type FieldError string

func (e FieldError) Error() string { return string(e) }

// Rule checks a trimmed value and returns a message when it is rejected.
type Rule func(value string) string

// Field is one row of a mapping table: the submitted field name, the rules
// applied to its value and the assignment onto the record.
type Field[T any] struct {
	Name   string
	Rules  []Rule
	Assign func(ctx context.Context, dst *T, value string) error
}

// Schema is the ordered mapping table of one form.
type Schema[T any] []Field[T]

// Bind validates values against the table and assigns every accepted field
// onto dst. The returned error is non-nil only for infrastructure failures
// raised by an assign step; field problems are reported through Errors.
func (s Schema[T]) Bind(ctx context.Context, values Values, dst *T) (Errors, error) {
	errs := Errors{}
	for _, f := range s {
		value := strings.TrimSpace(values[f.Name])
		if msg := applyRules(value, f.Rules); msg != "" {
			errs.Add(f.Name, msg)
			continue
		}
		if f.Assign == nil {
			continue
		}
		if err := f.Assign(ctx, dst, value); err != nil {
			var fe FieldError
			if errors.As(err, &fe) {
				errs.Add(f.Name, fe.Error())
				continue
			}
			return errs, err
		}
	}
	return errs, nil
}

func applyRules(value string, rules []Rule) string {
	for _, r := range rules {
		if msg := r(value); msg != "" {
			return msg
		}
	}
	return ""
}
