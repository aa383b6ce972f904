package patient

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no patient matches the medical record number.
var ErrNotFound = errors.New("patient not found")

// ErrNoDatabase is returned when a query runs on a request with no
// tenant database bound.
var ErrNoDatabase = errors.New("no tenant database bound to this request")

// Filter narrows a patient listing. Zero values mean "no constraint".
type Filter struct {
	Name      string
	MRN       string
	Gender    string
	SortBy    string
	SortOrder string
}

// Repository defines read access to the tenant's patient registry.
type Repository interface {
	List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error)
	GetByMRN(ctx context.Context, mrn string) (*Patient, error)
	FamilyMembers(ctx context.Context, memberNumber, excludeMRN string) ([]*Patient, error)
}
