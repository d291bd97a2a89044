package verification

import (
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
)

type Reason string

const (
	ReasonBurst           Reason = "burst"
	ReasonUniqueSources   Reason = "unique_sources"
	ReasonUniqueLocations Reason = "unique_locations"
	ReasonPostUseBurst    Reason = "post_use_burst"
)

// Thresholds configures the anomaly heuristics. A presentation is anomalous
// when a count strictly exceeds its threshold.
type Thresholds struct {
	Window          time.Duration
	Burst           int
	UniqueSources   int
	UniqueLocations int
	PostUse         int
	// HistoryLimit bounds the window read. It is raised to Burst+1 if
	// lower, so a capped read still trips the burst rule.
	HistoryLimit int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Window:          2 * time.Minute,
		Burst:           5,
		UniqueSources:   2,
		UniqueLocations: 2,
		PostUse:         3,
		HistoryLimit:    50,
	}
}

func (t Thresholds) normalized() Thresholds {
	d := DefaultThresholds()
	if t.Window <= 0 {
		t.Window = d.Window
	}
	if t.Burst <= 0 {
		t.Burst = d.Burst
	}
	if t.UniqueSources <= 0 {
		t.UniqueSources = d.UniqueSources
	}
	if t.UniqueLocations <= 0 {
		t.UniqueLocations = d.UniqueLocations
	}
	if t.PostUse <= 0 {
		t.PostUse = d.PostUse
	}
	if t.HistoryLimit <= t.Burst {
		t.HistoryLimit = max(d.HistoryLimit, t.Burst+1)
	}
	return t
}

// AnomalyReport is the outcome of scoring one presentation against the
// recent window. Counts include the current presentation.
type AnomalyReport struct {
	ScanCount       int
	UniqueSources   int
	UniqueLocations int
	Reasons         []Reason
}

func (r AnomalyReport) Anomalous() bool {
	return len(r.Reasons) > 0
}

// Score evaluates the window entries plus the current presentation from
// addr at location. The post-use rule applies only to an AlreadyUsed
// baseline.
func (t Thresholds) Score(baseline models.Outcome, window []*models.ScanEntry, addr, location string) AnomalyReport {
	sources := map[string]struct{}{addr: {}}
	locations := map[string]struct{}{location: {}}
	for _, e := range window {
		sources[e.SourceAddress] = struct{}{}
		locations[e.Location] = struct{}{}
	}

	r := AnomalyReport{
		ScanCount:       len(window) + 1,
		UniqueSources:   len(sources),
		UniqueLocations: len(locations),
	}

	if r.ScanCount > t.Burst {
		r.Reasons = append(r.Reasons, ReasonBurst)
	}
	if r.UniqueSources > t.UniqueSources {
		r.Reasons = append(r.Reasons, ReasonUniqueSources)
	}
	if r.UniqueLocations > t.UniqueLocations {
		r.Reasons = append(r.Reasons, ReasonUniqueLocations)
	}
	if baseline == models.OutcomeAlreadyUsed && r.ScanCount > t.PostUse {
		r.Reasons = append(r.Reasons, ReasonPostUseBurst)
	}
	return r
}
