// Package validation checks values against declared schemas. The monitor
// consumes it as an opaque capability: a nil schema always passes, and a
// failing value produces an Error carrying every collected message.
//
// Schemas form a closed set of three kinds: Primitive (a scalar kind check),
// Record (a struct checked against a prototype type and its validate tags),
// and SequenceOf (a slice or array of a uniform element schema).
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// Error reports a failed validation. Messages preserves occurrence order.
type Error struct {
	Messages []string
}

// Error returns all messages joined for display.
func (e *Error) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Messages extracts the message list from a validation failure. For any
// other error it returns the error text as a single message.
func Messages(err error) []string {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Messages
	}
	if err == nil {
		return nil
	}
	return []string{err.Error()}
}

// Schema declares the expected shape of a parameter or return value. The set
// of implementations is closed: Primitive, Record, and SequenceOf.
type Schema interface {
	isSchema()
}

// Kind enumerates the scalar kinds a Primitive schema can require.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Primitive requires a scalar of the given kind. Integer and float widths
// within the same kind are interchangeable.
type Primitive struct {
	Kind Kind
}

func (Primitive) isSchema() {}

// Record requires a struct assignable to the prototype's type; field rules
// are taken from the prototype type's `validate` tags.
type Record struct {
	Prototype any
}

func (Record) isSchema() {}

// SequenceOf requires a slice or array whose every element satisfies Elem.
type SequenceOf struct {
	Elem Schema
}

func (SequenceOf) isSchema() {}

// Validator checks a value against a schema. A nil schema is a pass.
type Validator interface {
	Validate(value any, schema Schema) error
}

// SchemaValidator is the default Validator, backed by a struct-tag
// validation engine for Record schemas. Safe for concurrent use.
type SchemaValidator struct {
	engine *validatorv10.Validate
}

// New creates a SchemaValidator with a fresh engine.
func New() *SchemaValidator {
	return &SchemaValidator{engine: validatorv10.New(validatorv10.WithRequiredStructEnabled())}
}

// Validate checks value against schema. It returns nil on pass and an *Error
// with all collected messages on failure.
func (v *SchemaValidator) Validate(value any, schema Schema) error {
	if schema == nil {
		return nil
	}
	msgs := v.check(value, schema)
	if len(msgs) > 0 {
		return &Error{Messages: msgs}
	}
	return nil
}

func (v *SchemaValidator) check(value any, schema Schema) []string {
	switch s := schema.(type) {
	case Primitive:
		return checkPrimitive(value, s.Kind)
	case Record:
		return v.checkRecord(value, s.Prototype)
	case SequenceOf:
		return v.checkSequence(value, s.Elem)
	default:
		return []string{fmt.Sprintf("unsupported schema type %T", schema)}
	}
}

func checkPrimitive(value any, kind Kind) []string {
	if value == nil {
		return []string{fmt.Sprintf("expected %s, got nil", kind)}
	}
	k := reflect.ValueOf(value).Kind()
	ok := false
	switch kind {
	case KindString:
		ok = k == reflect.String
	case KindInt:
		ok = k >= reflect.Int && k <= reflect.Uint64
	case KindFloat:
		ok = k == reflect.Float32 || k == reflect.Float64
	case KindBool:
		ok = k == reflect.Bool
	}
	if !ok {
		return []string{fmt.Sprintf("expected %s, got %T", kind, value)}
	}
	return nil
}

func (v *SchemaValidator) checkRecord(value any, prototype any) []string {
	if value == nil {
		return []string{fmt.Sprintf("expected %T, got nil", prototype)}
	}
	want := reflect.TypeOf(prototype)
	got := reflect.TypeOf(value)
	if want.Kind() == reflect.Pointer {
		want = want.Elem()
	}
	if got.Kind() == reflect.Pointer {
		got = got.Elem()
	}
	if got != want {
		return []string{fmt.Sprintf("expected %s, got %T", want, value)}
	}

	err := v.engine.Struct(value)
	if err == nil {
		return nil
	}
	var fieldErrs validatorv10.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fe.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}

func (v *SchemaValidator) checkSequence(value any, elem Schema) []string {
	if value == nil {
		return []string{"expected a sequence, got nil"}
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []string{fmt.Sprintf("expected a sequence, got %T", value)}
	}
	var msgs []string
	for i := 0; i < rv.Len(); i++ {
		for _, m := range v.check(rv.Index(i).Interface(), elem) {
			msgs = append(msgs, fmt.Sprintf("element %d: %s", i, m))
		}
	}
	return msgs
}
