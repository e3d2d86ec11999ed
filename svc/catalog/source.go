package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source loads plan definitions from outside the store, typically an
// operator-maintained seed file. The admin CRUD surface is an external
// collaborator; this is the boot-time path into the catalog.
type Source interface {
	Load(ctx context.Context) ([]Plan, error)
}

// FileSource reads plans from a YAML file:
//
//	plans:
//	  - id: plan_monthly
//	    name: Monthly Essentials
//	    price_minor_units: 2999
//	    interval: month
//	    active: true
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]Plan, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	for _, p := range doc.Plans {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Plans, nil
}

// StaticSource serves a fixed plan list. Used in tests.
type StaticSource []Plan

func (s StaticSource) Load(ctx context.Context) ([]Plan, error) {
	return s, nil
}

// ErrFailedToLoadPlans wraps seed-source failures.
var ErrFailedToLoadPlans = errors.New("failed to load plan definitions")

// Seed inserts plans from the source that the store does not have yet.
// Existing plans are left untouched so provisioned external refs are never
// clobbered by a reboot.
func Seed(ctx context.Context, store Store, src Source) error {
	plans, err := src.Load(ctx)
	if err != nil {
		return err
	}

	for _, p := range plans {
		if err := store.Create(ctx, p); err != nil {
			if errors.Is(err, ErrPlanAlreadyExists) {
				continue
			}
			return fmt.Errorf("seeding plan %s: %w", p.ID, err)
		}
	}
	return nil
}
