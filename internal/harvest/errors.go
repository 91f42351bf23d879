package harvest

import (
	"fmt"
	"strings"
)

// ValidationError reports that an item failed its schema contract. The item
// is dropped and its identifier logged as failed; the run continues.
type ValidationError struct {
	ID         SourceID
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("item %s failed validation: %s", e.ID, strings.Join(parts, "; "))
}

// StorageError reports a document-store write failure. The item's processing
// is treated as failed; the run continues unless the store is unreachable,
// which is caught at startup.
type StorageError struct {
	Op  string
	ID  SourceID
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s for %s: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
