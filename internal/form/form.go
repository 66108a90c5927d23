// Package form validates submitted HTML forms and collects the messages
// shown next to the offending fields.
package form

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Messages maps a struct field name, optionally suffixed with ".tag", to the
// message shown when that field fails. "Field.tag" wins over "Field".
type Messages map[string]string

// Errors holds failed fields in declaration order.
type Errors struct {
	Fields map[string]string
	order  []string
}

// NewErrors builds Errors from a single form-level message.
func NewErrors(field, msg string) *Errors {
	e := &Errors{Fields: map[string]string{}}
	e.Add(field, msg)
	return e
}

// Add records a message for field unless one is already present.
func (e *Errors) Add(field, msg string) {
	if _, ok := e.Fields[field]; ok {
		return
	}
	e.Fields[field] = msg
	e.order = append(e.order, field)
}

// List returns the messages in field order.
func (e *Errors) List() []string {
	out := make([]string, 0, len(e.order))
	for _, f := range e.order {
		out = append(out, e.Fields[f])
	}
	return out
}

// Has reports whether field failed.
func (e *Errors) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

func (e *Errors) Error() string {
	return "invalid form: " + strings.Join(e.List(), "; ")
}

// Validate checks v against its `validate` struct tags. It returns nil when
// v is valid, *Errors for field failures, or the validator's own error when
// v cannot be validated at all.
func Validate(v interface{}, msgs Messages) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Errors{Fields: map[string]string{}}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe, msgs))
	}
	return out
}

func message(fe validator.FieldError, msgs Messages) string {
	if m, ok := msgs[fe.Field()+"."+fe.Tag()]; ok {
		return m
	}
	if m, ok := msgs[fe.Field()]; ok {
		return m
	}
	return fe.Field() + " no es válido"
}

// AsErrors unwraps *Errors from err.
func AsErrors(err error) (*Errors, bool) {
	var fe *Errors
	ok := errors.As(err, &fe)
	return fe, ok
}
