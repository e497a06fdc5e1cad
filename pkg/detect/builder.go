package detect

import (
	"github.com/studiolumen/light-puppet/internal/config"
	"github.com/studiolumen/light-puppet/internal/log"
)

// BuildPipeline assembles the enabled backends from config. The
// face-driven backends share one face detector, owned by the
// pipeline. A missing model file fails here, before the frame loop
// starts.
func BuildPipeline(cfg config.DetectionConfig) (*Pipeline, error) {
	var (
		detectors []Detector
		shared    []closer
	)
	cleanup := func() {
		for _, d := range detectors {
			d.Close()
		}
		for _, c := range shared {
			c.Close()
		}
	}

	var faces *FaceFinder
	if cfg.Proximity.Enabled || cfg.Expression.Enabled || cfg.Peekaboo.Enabled || cfg.FaceCoords.Enabled {
		f, err := NewFaceFinder(cfg.FaceModel, cfg.FaceConfidence)
		if err != nil {
			return nil, err
		}
		faces = f
		shared = append(shared, f)
	}

	if cfg.Proximity.Enabled {
		detectors = append(detectors, NewProximity(faces, cfg.Proximity.CloseThreshold, cfg.Proximity.FarThreshold))
	}
	if cfg.Expression.Enabled {
		d, err := NewExpression(faces, cfg.ExpressionModel, cfg.Expression.AnalyzeEvery, cfg.Expression.MinConfidence)
		if err != nil {
			cleanup()
			return nil, err
		}
		detectors = append(detectors, d)
	}
	if cfg.Peekaboo.Enabled {
		detectors = append(detectors, NewPeekaboo(faces, cfg.Peekaboo.FaceLostFrames))
	}
	if cfg.FaceCoords.Enabled {
		detectors = append(detectors, NewFaceCoords(faces))
	}
	if cfg.Hands.Enabled {
		d, err := NewHands(cfg.HandModel, cfg.Hands.MinPresence)
		if err != nil {
			cleanup()
			return nil, err
		}
		detectors = append(detectors, d)
	}

	for _, d := range detectors {
		log.Debug("backend ready", "backend", d.Name())
	}

	p := NewPipeline(detectors...)
	p.shared = shared
	return p, nil
}
