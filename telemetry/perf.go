package telemetry

import "time"

// Phase names for a single propagator step, timed by PerfCollector.
const (
	PhaseFindMinEntropy = "find_min_entropy"
	PhaseObserve        = "observe"
	PhasePropagate      = "propagate"
	PhaseRestrict       = "restrict"
)

// PerfSample holds phase timing data for a single ObserveRandomCell
// call.
type PerfSample struct {
	StepDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks propagator step timing over a rolling window of
// steps, the same ring-buffer-of-samples shape the original per-tick
// performance collector used.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	stepStart     time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a performance collector averaging over the
// given number of steps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartStep begins timing a new propagator step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a named phase within the current step.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndStep finishes timing the current step and records the sample.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		StepDuration: now.Sub(p.stepStart),
		Phases:       p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated step timing statistics over the window.
type PerfStats struct {
	AvgStepDuration time.Duration
	MinStepDuration time.Duration
	MaxStepDuration time.Duration
	PhaseAvg        map[string]time.Duration
	PhasePct        map[string]float64
	StepsPerSecond  float64
}

// PerfStatsCSV is the flattened, gocsv-friendly projection of PerfStats
// used by OutputManager.WritePerf.
type PerfStatsCSV struct {
	Attempt             int     `csv:"attempt"`
	AvgStepMicros       int64   `csv:"avg_step_us"`
	MinStepMicros       int64   `csv:"min_step_us"`
	MaxStepMicros       int64   `csv:"max_step_us"`
	StepsPerSecond      float64 `csv:"steps_per_sec"`
	FindMinEntropyPct   float64 `csv:"find_min_entropy_pct"`
	ObservePct          float64 `csv:"observe_pct"`
	PropagatePct        float64 `csv:"propagate_pct"`
	RestrictPct         float64 `csv:"restrict_pct"`
}

// ToCSV flattens PerfStats into a PerfStatsCSV row for the given attempt.
func (p PerfStats) ToCSV(attempt int) PerfStatsCSV {
	return PerfStatsCSV{
		Attempt:           attempt,
		AvgStepMicros:     p.AvgStepDuration.Microseconds(),
		MinStepMicros:     p.MinStepDuration.Microseconds(),
		MaxStepMicros:     p.MaxStepDuration.Microseconds(),
		StepsPerSecond:    p.StepsPerSecond,
		FindMinEntropyPct: p.PhasePct[PhaseFindMinEntropy],
		ObservePct:        p.PhasePct[PhaseObserve],
		PropagatePct:      p.PhasePct[PhasePropagate],
		RestrictPct:       p.PhasePct[PhaseRestrict],
	}
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var totalStep time.Duration
	var minStep, maxStep time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalStep += s.StepDuration

		if i == 0 || s.StepDuration < minStep {
			minStep = s.StepDuration
		}
		if s.StepDuration > maxStep {
			maxStep = s.StepDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avgStep := totalStep / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgStep > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgStep) * 100
		}
	}

	var stepsPerSec float64
	if avgStep > 0 {
		stepsPerSec = float64(time.Second) / float64(avgStep)
	}

	return PerfStats{
		AvgStepDuration: avgStep,
		MinStepDuration: minStep,
		MaxStepDuration: maxStep,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		StepsPerSecond:  stepsPerSec,
	}
}
