// Package detect implements the perception backends that read frames
// and report partial observations: subject distance, facial
// expression, the peekaboo gesture, and landmark coordinates.
package detect

import (
	"math"

	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/internal/log"
	"github.com/studiolumen/light-puppet/pkg/state"
)

// Detector is one perception backend. Detect reads a frame and
// reports the fields this backend knows about; fields it has no
// opinion on stay unset in the Observation.
type Detector interface {
	// Name identifies the backend in logs.
	Name() string

	// Detect extracts this backend's fields from one camera frame.
	Detect(img gocv.Mat) (state.Observation, error)

	// Close releases backend resources.
	Close() error
}

type closer interface {
	Close() error
}

// Pipeline runs an ordered set of backends over each frame. The order
// is the merge precedence: observations later in the pipeline win on
// contested fields.
type Pipeline struct {
	detectors []Detector
	last      []state.Observation
	shared    []closer
}

// NewPipeline wraps the given backends. The pipeline takes ownership
// and closes them when it is closed.
func NewPipeline(detectors ...Detector) *Pipeline {
	return &Pipeline{
		detectors: detectors,
		last:      make([]state.Observation, len(detectors)),
	}
}

// Run executes every backend against one frame, in order. A failing
// backend contributes its previous observation instead of
// propagating the error, so one bad inference cannot knock a field
// out of the frame or stall the loop.
func (p *Pipeline) Run(img gocv.Mat) []state.Observation {
	out := make([]state.Observation, len(p.detectors))
	for i, d := range p.detectors {
		obs, err := d.Detect(img)
		if err != nil {
			log.Warn("backend failed, holding previous observation",
				"backend", d.Name(), "error", err)
			out[i] = p.last[i]
			continue
		}
		p.last[i] = obs
		out[i] = obs
	}
	return out
}

// Len returns the number of backends in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.detectors)
}

// Close releases every backend, then the shared resources.
func (p *Pipeline) Close() error {
	var first error
	for _, d := range p.detectors {
		if err := d.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, c := range p.shared {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
