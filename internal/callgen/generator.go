// Package callgen generates synthetic call records for demos and for seeding
// the analytics store.
package callgen

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
)

// Options controls the shape of generated data
type Options struct {
	Agents      int           // agent ids AGT_001..AGT_<Agents>
	Window      time.Duration // calls start within this window before now
	MaxCallMins int           // call length is 1..MaxCallMins minutes
	Departments int
	Companies   int

	// Relative weights, indexed like types.AllStatuses and types.AllOutcomes
	StatusWeights  []int
	OutcomeWeights []int
}

// DefaultOptions mirrors the demo dataset: 50 agents, 30 days, calls up to an hour
func DefaultOptions() Options {
	return Options{
		Agents:         50,
		Window:         30 * 24 * time.Hour,
		MaxCallMins:    60,
		Departments:    5,
		Companies:      10,
		StatusWeights:  []int{1, 1, 1},
		OutcomeWeights: []int{1, 1, 1},
	}
}

// Generator creates call records from a seeded source, so equal seeds and
// clocks produce equal batches.
type Generator struct {
	rng  *rand.Rand
	now  func() time.Time
	opts Options
}

// NewGenerator creates a generator. A nil now uses time.Now.
func NewGenerator(seed int64, now func() time.Time, opts Options) (*Generator, error) {
	if opts.Agents <= 0 || opts.MaxCallMins <= 0 || opts.Departments <= 0 || opts.Companies <= 0 {
		return nil, fmt.Errorf("agents, call length, departments and companies must be positive")
	}
	if opts.Window < 0 {
		return nil, fmt.Errorf("window must not be negative")
	}
	if err := checkWeights(opts.StatusWeights, len(types.AllStatuses)); err != nil {
		return nil, fmt.Errorf("status weights: %w", err)
	}
	if err := checkWeights(opts.OutcomeWeights, len(types.AllOutcomes)); err != nil {
		return nil, fmt.Errorf("outcome weights: %w", err)
	}
	if now == nil {
		now = time.Now
	}

	return &Generator{
		rng:  rand.New(rand.NewSource(seed)),
		now:  now,
		opts: opts,
	}, nil
}

// Generate creates count records with row ids 1..count. Timestamps are
// emitted in unit; milliseconds need no further normalization.
func (g *Generator) Generate(count int, unit types.TimeUnit) (types.Batch, error) {
	if unit != types.UnitSeconds && unit != types.UnitMilliseconds {
		return types.Batch{}, fmt.Errorf("unknown time unit %q", unit)
	}

	now := g.now().Truncate(time.Second)
	windowMins := int64(g.opts.Window / time.Minute)

	batch := types.Batch{Unit: unit, Records: make([]types.CallRecord, count)}

	for i := 0; i < count; i++ {
		var offset time.Duration
		if windowMins > 0 {
			offset = time.Duration(g.rng.Int63n(windowMins+1)) * time.Minute
		}
		start := now.Add(-offset)
		length := time.Duration(g.rng.Intn(g.opts.MaxCallMins)+1) * time.Minute
		end := start.Add(length)

		batch.Records[i] = types.CallRecord{
			RowID:         int64(i + 1),
			CallID:        fmt.Sprintf("CALL_%06d", i+1),
			AgentID:       fmt.Sprintf("AGT_%03d", g.rng.Intn(g.opts.Agents)+1),
			CallStartTime: stamp(start, unit),
			CallEndTime:   stamp(end, unit),
			Duration:      length.Minutes(),
			DepartmentID:  g.rng.Intn(g.opts.Departments) + 1,
			CompanyID:     g.rng.Intn(g.opts.Companies) + 1,
			CallStatus:    weightedChoice(g.rng, types.AllStatuses, g.opts.StatusWeights),
			CallOutcome:   weightedChoice(g.rng, types.AllOutcomes, g.opts.OutcomeWeights),
		}
	}

	return batch, nil
}

func stamp(t time.Time, unit types.TimeUnit) int64 {
	if unit == types.UnitSeconds {
		return t.Unix()
	}
	return t.UnixMilli()
}

// weightedChoice selects an item based on weights
func weightedChoice[T any](rng *rand.Rand, items []T, weights []int) T {
	total := 0
	for _, w := range weights {
		total += w
	}

	choice := rng.Intn(total)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if choice < cumulative {
			return items[i]
		}
	}
	return items[0]
}

func checkWeights(weights []int, n int) error {
	if len(weights) != n {
		return fmt.Errorf("expected %d weights, got %d", n, len(weights))
	}
	total := 0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("negative weight %d", w)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("weights sum to zero")
	}
	return nil
}
