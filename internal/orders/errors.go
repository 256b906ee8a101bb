package orders

import (
	"errors"
	"fmt"
)

// ErrStatusMismatch is returned by conditional status updates when the stored status
// is not the expected one.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// ErrOrderExists is returned by Insert when the order id is already stored.
var ErrOrderExists = errors.New("order already exists")

// ErrNumberTaken is returned by Insert when another order already holds the order number.
var ErrNumberTaken = errors.New("order number already taken")

// ValidationError reports malformed input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Msg
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// UnavailableError names a catalog item that is not currently orderable.
type UnavailableError struct {
	ItemID string
	Name   string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("menu item %q (%s) is currently unavailable", e.Name, e.ItemID)
}

// ForbiddenError reports an authorization failure.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Msg }

// InvalidStateError reports an operation not permitted in the order's current status.
type InvalidStateError struct {
	OrderID string
	Status  Status
	Op      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s order %s in status %s", e.Op, e.OrderID, e.Status)
}
