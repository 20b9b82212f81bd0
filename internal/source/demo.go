package source

import (
	"context"
	"time"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/internal/demo"
)

// DemoSource serves seeded synthetic datasets
type DemoSource struct {
	seed uint64
	now  func() time.Time
}

// NewDemo creates a demo source; a nil clock means time.Now
func NewDemo(seed uint64, now func() time.Time) *DemoSource {
	if now == nil {
		now = time.Now
	}
	return &DemoSource{seed: seed, now: now}
}

func (s *DemoSource) Name() string { return "demo" }

// Load regenerates the requested tables relative to the current clock
func (s *DemoSource) Load(ctx context.Context, types []string) (map[string]*contracts.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return map[string]*contracts.Table{}, nil
	}
	return demo.New(s.seed, s.now()).Generate(types...), nil
}
