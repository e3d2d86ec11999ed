package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalsupply/storefront/svc/catalog"
)

func validPlan() catalog.Plan {
	return catalog.Plan{
		ID:              "plan_essentials_monthly",
		Name:            "Monthly Essentials",
		PriceMinorUnits: 2999,
		Interval:        catalog.IntervalMonth,
		Active:          true,
	}
}

func TestPlan_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid plan passes", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, validPlan().Validate())
	})

	t.Run("missing ID", func(t *testing.T) {
		t.Parallel()
		p := validPlan()
		p.ID = ""
		assert.ErrorIs(t, p.Validate(), catalog.ErrInvalidPlan)
	})

	t.Run("missing name", func(t *testing.T) {
		t.Parallel()
		p := validPlan()
		p.Name = ""
		assert.ErrorIs(t, p.Validate(), catalog.ErrInvalidPlan)
	})

	t.Run("negative price", func(t *testing.T) {
		t.Parallel()
		p := validPlan()
		p.PriceMinorUnits = -1
		assert.ErrorIs(t, p.Validate(), catalog.ErrInvalidPlan)
	})

	t.Run("unsupported interval", func(t *testing.T) {
		t.Parallel()
		p := validPlan()
		p.Interval = "fortnight"
		assert.ErrorIs(t, p.Validate(), catalog.ErrInvalidPlan)
	})

	t.Run("quarter interval is supported", func(t *testing.T) {
		t.Parallel()
		p := validPlan()
		p.Interval = catalog.IntervalQuarter
		require.NoError(t, p.Validate())
	})
}

func TestPlan_HasExternalRefs(t *testing.T) {
	t.Parallel()

	p := validPlan()
	assert.False(t, p.HasExternalRefs())

	p.ExternalProductRef = "prod_123"
	assert.False(t, p.HasExternalRefs(), "product ref alone is not provisioned")

	p.ExternalPriceRef = "price_123"
	assert.True(t, p.HasExternalRefs())
}
