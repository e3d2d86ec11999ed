package catalog

import (
	"errors"
	"fmt"
)

// BillingInterval is the billing frequency of a plan.
//
// Quarter has no native equivalent on the payment processor and is mapped to
// a monthly interval with a count of three during price provisioning.
type BillingInterval string

const (
	IntervalMonth   BillingInterval = "month"
	IntervalQuarter BillingInterval = "quarter"
	IntervalYear    BillingInterval = "year"
)

// Valid reports whether the interval is one of the supported values.
func (i BillingInterval) Valid() bool {
	switch i {
	case IntervalMonth, IntervalQuarter, IntervalYear:
		return true
	}
	return false
}

// Plan is a sellable subscription plan. Plans are created and edited by the
// admin collaborator; the billing core reads them and only ever writes the
// external refs (through UpdateExternalRefs) after provisioning.
//
// PriceMinorUnits is the price in the currency's minor unit (cents for USD),
// never a floating-point amount.
type Plan struct {
	ID                 string          `yaml:"id"`
	Name               string          `yaml:"name"`
	Description        string          `yaml:"description"`
	PriceMinorUnits    int64           `yaml:"price_minor_units"`
	Interval           BillingInterval `yaml:"interval"`
	ExternalProductRef string          `yaml:"external_product_ref"`
	ExternalPriceRef   string          `yaml:"external_price_ref"`
	Active             bool            `yaml:"active"`
}

// Validate checks the plan's internal consistency.
func (p Plan) Validate() error {
	if p.ID == "" {
		return errors.Join(ErrInvalidPlan, errors.New("plan ID is required"))
	}
	if p.Name == "" {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %s: name is required", p.ID))
	}
	if p.PriceMinorUnits < 0 {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %s: negative price %d", p.ID, p.PriceMinorUnits))
	}
	if !p.Interval.Valid() {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %s: unsupported interval %q", p.ID, p.Interval))
	}
	return nil
}

// HasExternalRefs reports whether the plan carries both processor references.
// A plan without refs has never been provisioned; the refs may still be stale
// on the processor side, which only resolution can tell.
func (p Plan) HasExternalRefs() bool {
	return p.ExternalProductRef != "" && p.ExternalPriceRef != ""
}
