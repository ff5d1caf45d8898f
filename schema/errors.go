package schema

import (
	"errors"
	"fmt"
)

// ErrSchemaDefinition is the root of every error caused by a faulty schema.
// These errors are fatal for the schema and are never recovered internally.
var ErrSchemaDefinition = errors.New("schema definition error")

var (
	ErrUnresolvedReference = fmt.Errorf("%w: unresolved type reference", ErrSchemaDefinition)
	ErrUnknownType         = fmt.Errorf("%w: unknown type", ErrSchemaDefinition)
	ErrDuplicateTag        = fmt.Errorf("%w: duplicate tag", ErrSchemaDefinition)
	ErrDuplicateDefinition = fmt.Errorf("%w: duplicate definition", ErrSchemaDefinition)
	ErrReferenceCycle      = fmt.Errorf("%w: reference cycle", ErrSchemaDefinition)
	ErrNoUniversalTag      = fmt.Errorf("%w: type has no tag", ErrSchemaDefinition)
	ErrUnknownModule       = fmt.Errorf("%w: unknown module", ErrSchemaDefinition)
)

// DuplicateTagError reports two components of one constructed type that were
// assigned the same decorated tag.
type DuplicateTagError struct {
	Type   string
	Tag    string
	First  string
	Second string
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("duplicate tag %s in %s: components %q and %q", e.Tag, e.Type, e.First, e.Second)
}

func (e *DuplicateTagError) Unwrap() error { return ErrDuplicateTag }
