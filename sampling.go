package mindquantum

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/theapemachine/errnie"
)

/*
SamplingResult holds the outcomes of a sampling run: one row per shot, one
column per measurement key, columns ordered by Keys (circuit order of the
measurement gates). RunID tags the run for logs and downstream bookkeeping.
*/
type SamplingResult struct {
	RunID   string
	Keys    []string
	Samples [][]int
}

// Counts aggregates the shots into bitstring frequencies, keyed by the
// concatenated outcomes in Keys order.
func (r *SamplingResult) Counts() map[string]int {
	counts := make(map[string]int)
	var sb strings.Builder
	for _, row := range r.Samples {
		sb.Reset()
		for _, bit := range row {
			if bit == 0 {
				sb.WriteByte('0')
			} else {
				sb.WriteByte('1')
			}
		}
		counts[sb.String()]++
	}
	return counts
}

/*
Sampling runs the circuit shots times and collects the measurement outcomes.
Every shot executes on a private clone seeded with a sub-seed derived from
the base seed and the shot index, so runs are reproducible shot by shot and
the canonical state is never touched. Channel gates participate as
trajectory branches on vector states, which makes this a jump-trajectory
sampler for noisy circuits.
*/
func (s *State) Sampling(circ Circuit, pb ParameterBinding, shots int, seed uint64) (*SamplingResult, error) {
	if shots < 1 {
		return nil, fmt.Errorf("shots %d must be positive: %w", shots, ErrInvalidCircuit)
	}
	if err := circ.Validate(s.n, pb); err != nil {
		return nil, err
	}
	keys := circ.MeasureKeys()
	if len(keys) == 0 {
		return nil, fmt.Errorf("circuit has no measurement gates: %w", ErrInvalidCircuit)
	}
	res := &SamplingResult{
		RunID:   uuid.NewString(),
		Keys:    keys,
		Samples: make([][]int, shots),
	}
	errnie.Info("Sampling - run %s, %d shots over %d keys", res.RunID, shots, len(keys))
	for shot := 0; shot < shots; shot++ {
		clone := s.Clone()
		clone.reseed(subSeed(seed, uint64(shot)))
		outcomes, err := clone.ApplyCircuit(circ, pb)
		if err != nil {
			return nil, fmt.Errorf("shot %d: %w", shot, err)
		}
		row := make([]int, len(keys))
		for i, key := range keys {
			row[i] = outcomes[key]
		}
		res.Samples[shot] = row
	}
	s.metrics.recordShots(int64(shots))
	return res, nil
}
