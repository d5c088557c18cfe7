package bus

import (
	"fmt"
	"time"
)

// QueryFilter holds the optional fields users can be filtered by.
type QueryFilter struct {
	Name           *string
	Department     *string
	Roles          []Role
	StartCreatedAt *time.Time
	EndCreatedAt   *time.Time
}

// Validate checks the filter is coherent.
func (qf QueryFilter) Validate() error {
	if qf.StartCreatedAt != nil && qf.EndCreatedAt != nil {
		if qf.EndCreatedAt.Before(*qf.StartCreatedAt) {
			return fmt.Errorf("%w: endCreatedAt %s is before startCreatedAt %s", ErrInvalidFilter, qf.EndCreatedAt.Format(time.RFC3339), qf.StartCreatedAt.Format(time.RFC3339))
		}
	}

	return nil
}
