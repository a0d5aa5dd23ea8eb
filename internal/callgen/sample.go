package callgen

import (
	"time"

	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
)

// sampleClock pins the sample dataset so /calls_data is stable across restarts
var sampleClock = time.Date(2024, time.January, 31, 18, 0, 0, 0, time.UTC)

const sampleSeed = 42

// Sample returns a fixed set of size records in milliseconds
func Sample(size int) ([]types.CallRecord, error) {
	g, err := NewGenerator(sampleSeed, func() time.Time { return sampleClock }, DefaultOptions())
	if err != nil {
		return nil, err
	}
	batch, err := g.Generate(size, types.UnitMilliseconds)
	if err != nil {
		return nil, err
	}
	return batch.Records, nil
}
