package pipeline

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Pass names, also valid values for Settings.OnlyPass.
const (
	PhaseClassify    = "input-classification"
	PhaseSite        = "site-specific"
	PhaseAttribute   = "attribute"
	PhaseStructure   = "structure"
	PhasePattern     = "pattern-matching"
	PhaseContextual  = "contextual"
	PhaseArbitration = "arbitration"
)

// TraceEntry records one pass of one extraction invocation. Entries share
// the invocation's correlation id and are recorded whether or not debug
// mode is on; debug mode only controls log emission.
type TraceEntry struct {
	Phase   string        `json:"phase"`
	Context string        `json:"context"`
	Elapsed time.Duration `json:"elapsed"`
	Results int           `json:"results"`
}

// tracer accumulates entries for one invocation.
type tracer struct {
	correlationID string
	debug         bool
	entries       []TraceEntry
}

func (t *tracer) record(phase, context string, started time.Time, results int) {
	e := TraceEntry{
		Phase:   phase,
		Context: context,
		Elapsed: time.Since(started),
		Results: results,
	}
	t.entries = append(t.entries, e)
	if t.debug {
		log.Debug().
			Str("correlationId", t.correlationID).
			Str("phase", e.Phase).
			Str("context", e.Context).
			Dur("elapsed", e.Elapsed).
			Int("results", e.Results).
			Msg("extraction pass")
	}
}
