package schema

import (
	"fmt"
	"strings"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
)

// SchemaValidationError is returned when a strict schema rejects a batch.
// Records lists every offending point with all of its violations.
type SchemaValidationError struct {
	Collection string
	Records    []RecordErrors
}

func (e *SchemaValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d point(s) in %q", domain.ErrSchemaValidation, len(e.Records), e.Collection)
	for _, r := range e.Records {
		msgs := make([]string, len(r.Errors))
		for i, ve := range r.Errors {
			msgs[i] = ve.Message
		}
		fmt.Fprintf(&b, "; point %d (id %s): %s", r.Index, r.ID, strings.Join(msgs, ", "))
	}
	return b.String()
}

func (e *SchemaValidationError) Unwrap() error { return domain.ErrSchemaValidation }
