package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRange = errors.New("date range: end must be after start")

// NotFoundError: a referenced deal/rental/asset/accessory does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ConflictError: the requested date range overlaps an existing blocking
// rental for the same asset. Carries enough to build a human-readable
// message about who is occupying the asset and when.
type ConflictError struct {
	AssetCode  string
	ClientName string
	Start      time.Time
	End        time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("asset %s is booked by %s from %s to %s",
		e.AssetCode, e.ClientName, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// InsufficientInventoryError: a reservation request exceeds available stock.
type InsufficientInventoryError struct {
	AccessoryName string
	Requested     int32
	Available     int32
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("accessory %q: requested %d, only %d available",
		e.AccessoryName, e.Requested, e.Available)
}

// InvalidTransitionError: an operation was requested from a state that does
// not permit it.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: cannot go from %s to %s: %s", e.Entity, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("%s: cannot go from %s to %s", e.Entity, e.From, e.To)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
