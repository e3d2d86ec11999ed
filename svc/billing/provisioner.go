package billing

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vitalsupply/storefront/svc/catalog"
)

// Provisioner ensures a plan has a valid external product+price pair before
// checkout, creating them lazily when the stored refs are missing or no
// longer resolve.
//
// Concurrency policy: a per-plan mutex serializes provisioning within this
// process, and the catalog write is a compare-and-swap. Two processes can
// still race; the loser's price is orphaned on the processor side and the
// winner's refs stand. Orphaned prices cost nothing and are visible in the
// processor dashboard.
type Provisioner struct {
	plans     catalog.Store
	processor Processor
	log       *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewProvisioner returns a Provisioner. A nil logger disables logging.
func NewProvisioner(plans catalog.Store, processor Processor, log *slog.Logger) *Provisioner {
	if plans == nil {
		panic("billing: catalog store is required")
	}
	if processor == nil {
		panic("billing: payment processor is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Provisioner{
		plans:     plans,
		processor: processor,
		log:       log,
		locks:     make(map[string]*sync.Mutex),
	}
}

// EnsurePriceRef resolves the plan's external price ref against the
// processor, provisioning a fresh product+price when resolution reports the
// ref missing. It returns the ref to check out with.
//
// Transport failures during resolution propagate as ErrExternalService
// without provisioning: creating a duplicate price because the network
// blipped would orphan external objects for no benefit. Creation failures
// propagate as ErrProvisioningFailed; a stale ref is never returned.
func (p *Provisioner) EnsurePriceRef(ctx context.Context, planID string) (string, error) {
	lock := p.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := p.plans.Get(ctx, planID)
	if err != nil {
		return "", err
	}

	if plan.ExternalPriceRef != "" {
		err := p.processor.RetrievePrice(ctx, plan.ExternalPriceRef)
		if err == nil {
			return plan.ExternalPriceRef, nil
		}
		if !errors.Is(err, ErrPriceNotFound) {
			return "", err
		}
		p.log.WarnContext(ctx, "stored price ref no longer resolves, reprovisioning",
			"plan_id", plan.ID, "price_ref", plan.ExternalPriceRef)
	}

	productRef, err := p.processor.CreateProduct(ctx, plan.Name, plan.Description)
	if err != nil {
		return "", errors.Join(ErrProvisioningFailed, err)
	}

	priceRef, err := p.processor.CreatePrice(ctx, productRef, plan.PriceMinorUnits, recurrenceFor(plan.Interval))
	if err != nil {
		return "", errors.Join(ErrProvisioningFailed, err)
	}

	err = p.plans.UpdateExternalRefs(ctx, plan.ID,
		plan.ExternalProductRef, plan.ExternalPriceRef, productRef, priceRef)
	switch {
	case err == nil:
		p.log.InfoContext(ctx, "provisioned external price",
			"plan_id", plan.ID, "product_ref", productRef, "price_ref", priceRef)
		return priceRef, nil
	case errors.Is(err, catalog.ErrRefConflict):
		// A concurrent provisioner won the write; its refs are at least as
		// fresh as ours. Use them and leave our price orphaned.
		fresh, getErr := p.plans.Get(ctx, plan.ID)
		if getErr != nil {
			return "", getErr
		}
		p.log.WarnContext(ctx, "lost provisioning race, using concurrent result",
			"plan_id", plan.ID, "orphaned_price_ref", priceRef, "winning_price_ref", fresh.ExternalPriceRef)
		return fresh.ExternalPriceRef, nil
	default:
		return "", errors.Join(ErrProvisioningFailed, err)
	}
}

// recurrenceFor maps a catalog interval onto the processor's cadence.
// Quarterly plans become month x3 since the processor lacks a quarter unit.
func recurrenceFor(interval catalog.BillingInterval) PriceRecurrence {
	switch interval {
	case catalog.IntervalQuarter:
		return PriceRecurrence{Interval: "month", IntervalCount: 3}
	case catalog.IntervalYear:
		return PriceRecurrence{Interval: "year", IntervalCount: 1}
	default:
		return PriceRecurrence{Interval: "month", IntervalCount: 1}
	}
}

func (p *Provisioner) planLock(planID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[planID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[planID] = lock
	}
	return lock
}
