package mindquantum

import "sync"

/*
Metrics aggregates counters across a state and every clone derived from it.
Clones share their parent's collector, so batched gradient and sampling runs
report into one place. All methods are safe for concurrent use.
*/
type Metrics struct {
	mu sync.RWMutex

	GatesApplied    int64
	Measurements    int64
	ChannelBranches int64
	GradientEvals   int64
	CircuitRuns     int64
	ShotsSampled    int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordGate() {
	m.mu.Lock()
	m.GatesApplied++
	m.mu.Unlock()
}

func (m *Metrics) recordMeasure() {
	m.mu.Lock()
	m.Measurements++
	m.mu.Unlock()
}

func (m *Metrics) recordChannelBranch() {
	m.mu.Lock()
	m.ChannelBranches++
	m.mu.Unlock()
}

func (m *Metrics) recordGradientEvals(n int64) {
	m.mu.Lock()
	m.GradientEvals += n
	m.mu.Unlock()
}

func (m *Metrics) recordCircuitRun() {
	m.mu.Lock()
	m.CircuitRuns++
	m.mu.Unlock()
}

func (m *Metrics) recordShots(n int64) {
	m.mu.Lock()
	m.ShotsSampled += n
	m.mu.Unlock()
}

// ExportMetrics snapshots the counters for logging or monitoring sinks.
func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"gates_applied":    m.GatesApplied,
		"measurements":     m.Measurements,
		"channel_branches": m.ChannelBranches,
		"gradient_evals":   m.GradientEvals,
		"circuit_runs":     m.CircuitRuns,
		"shots_sampled":    m.ShotsSampled,
	}
}
