package catalog

import "errors"

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrPlanAlreadyExists = errors.New("plan already exists")
	ErrInvalidPlan       = errors.New("invalid plan configuration")

	// ErrRefConflict is returned by UpdateExternalRefs when the stored refs no
	// longer match the ones the caller observed, meaning a concurrent
	// provisioning won the write.
	ErrRefConflict = errors.New("plan external refs changed concurrently")
)
