package domain

import (
	"fmt"
)

// PaginationOptions defines limit/offset pagination over a collection
type PaginationOptions struct {
	Limit    int `json:"limit,omitempty"`
	Offset   int `json:"offset,omitempty"`
	MaxLimit int `json:"max_limit,omitempty"` // Maximum allowed limit
}

// DefaultPaginationOptions returns default pagination settings
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		MaxLimit: 1000,
	}
}

// Validate validates pagination options
func (po *PaginationOptions) Validate() error {
	if po.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if po.Offset < 0 {
		return fmt.Errorf("offset cannot be negative")
	}
	if po.MaxLimit > 0 && po.Limit > po.MaxLimit {
		return fmt.Errorf("limit %d exceeds maximum %d", po.Limit, po.MaxLimit)
	}
	return nil
}

// Page returns the slice of coll selected by the options. A zero limit
// means everything after the offset.
func (po *PaginationOptions) Page(coll Collection) Collection {
	if po.Offset >= len(coll) {
		return Collection{}
	}
	end := len(coll)
	if po.Limit > 0 && po.Offset+po.Limit < end {
		end = po.Offset + po.Limit
	}
	return coll[po.Offset:end]
}
