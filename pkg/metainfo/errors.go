package metainfo

import "fmt"

// SchemaError reports a missing or ill-typed field, or a field value
// outside its allowed range.
type SchemaError struct {
	Field string
	Msg   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf(`metainfo: %s: %s`, e.Field, e.Msg)
}

func schemaErrorf(field, format string, args ...interface{}) error {
	return &SchemaError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// InvariantError reports an inconsistency between fields that are
// individually well-formed: pieces length vs file sizes, missing piece
// layers, hybrid v1/v2 file set mismatches.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return `metainfo: ` + e.Msg
}

func invariantErrorf(format string, args ...interface{}) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

// PathError reports an unsafe path component.
type PathError struct {
	Component string
	Msg       string
}

func (e *PathError) Error() string {
	return fmt.Sprintf(`metainfo: unsafe path component %q: %s`, e.Component, e.Msg)
}
