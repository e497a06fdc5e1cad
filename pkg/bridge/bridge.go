// Package bridge runs the capture loop: frames from the camera go
// through the detection pipeline, are merged into one raw result,
// conditioned by the state manager, and fanned out to the enabled
// sinks.
package bridge

import (
	"context"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/internal/log"
	"github.com/studiolumen/light-puppet/internal/preview"
	"github.com/studiolumen/light-puppet/internal/recorder"
	"github.com/studiolumen/light-puppet/internal/timeutil"
	"github.com/studiolumen/light-puppet/pkg/camera"
	"github.com/studiolumen/light-puppet/pkg/detect"
	"github.com/studiolumen/light-puppet/pkg/monitor"
	"github.com/studiolumen/light-puppet/pkg/notify"
	"github.com/studiolumen/light-puppet/pkg/state"
)

// readRetryDelay keeps a failing camera from spinning the loop.
const readRetryDelay = 50 * time.Millisecond

// Bridge owns the capture loop.
type Bridge struct {
	camera   camera.Source
	pipeline *detect.Pipeline
	manager  *state.Manager
	notifier notify.Notifier
	clock    timeutil.Clock

	monitor  *monitor.Server
	recorder *recorder.Recorder
	preview  *preview.Window

	printDetections bool

	frames  uint64
	dropped uint64
}

// New wires the required components. Optional sinks are attached
// afterwards.
func New(cam camera.Source, pipe *detect.Pipeline, mgr *state.Manager, n notify.Notifier) *Bridge {
	return &Bridge{
		camera:   cam,
		pipeline: pipe,
		manager:  mgr,
		notifier: n,
		clock:    timeutil.RealClock{},
	}
}

// AttachMonitor streams changes, snapshots and camera frames to the
// dashboard.
func (b *Bridge) AttachMonitor(srv *monitor.Server) { b.monitor = srv }

// AttachRecorder persists raw frames and confirmed changes.
func (b *Bridge) AttachRecorder(rec *recorder.Recorder) { b.recorder = rec }

// AttachPreview shows frames in a local window.
func (b *Bridge) AttachPreview(win *preview.Window) { b.preview = win }

// PrintDetections echoes confirmed changes to stdout.
func (b *Bridge) PrintDetections(on bool) { b.printDetections = on }

// Frames reports how many frames were processed.
func (b *Bridge) Frames() uint64 { return b.frames }

// Dropped reports how many camera reads failed.
func (b *Bridge) Dropped() uint64 { return b.dropped }

// Run starts the camera and processes frames until ctx is cancelled
// or the preview window is closed. Backend and sink failures are
// logged, never fatal.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.camera.Start(); err != nil {
		return fmt.Errorf("failed to start camera: %w", err)
	}
	defer b.camera.Stop()

	// publish the resting state so subscribers start from a known baseline
	if err := b.notifier.SendAll(b.manager.Current()); err != nil {
		log.Warn("baseline send failed", "error", err)
	}

	img := gocv.NewMat()
	defer img.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !b.camera.Read(&img) {
			b.dropped++
			log.Warn("camera read failed, skipping frame")
			b.clock.Sleep(readRetryDelay)
			continue
		}
		b.frames++

		raw := state.Merge(b.pipeline.Run(img))

		for _, f := range state.ContinuousFields() {
			if err := b.notifier.SendValue(f, raw.Continuous(f)); err != nil {
				log.Warn("value send failed", "field", f, "error", err)
			}
		}

		changes := b.manager.Update(raw)
		for _, ch := range changes {
			if err := b.notifier.SendChange(ch.Field, ch.Value); err != nil {
				log.Warn("change send failed", "field", ch.Field, "error", err)
			}
			if b.monitor != nil {
				b.monitor.PublishChange(ch)
			}
			if b.printDetections {
				fmt.Printf("%s = %s\n", ch.Field, ch.Value)
			}
		}

		b.record(raw, changes)
		b.publishSnapshot(raw)

		if !b.show(&img, raw) {
			return nil
		}
	}
}

func (b *Bridge) record(raw state.Result, changes []state.Change) {
	if b.recorder == nil {
		return
	}
	at := b.clock.Now()
	if err := b.recorder.RecordFrame(at, raw); err != nil {
		log.Warn("frame record failed", "error", err)
		return
	}
	if err := b.recorder.RecordChanges(at, changes); err != nil {
		log.Warn("change record failed", "error", err)
	}
}

func (b *Bridge) publishSnapshot(raw state.Result) {
	if b.monitor == nil {
		return
	}
	c := b.manager.Current()
	b.monitor.PublishSnapshot(monitor.Snapshot{
		Proximity:      string(c.Proximity),
		Expression:     string(c.Expression),
		Gesture:        string(c.Gesture),
		ProximityValue: raw.ProximityValue,
		FaceX:          raw.FaceX,
		FaceY:          raw.FaceY,
		HandLeftX:      raw.HandLeftX,
		HandLeftY:      raw.HandLeftY,
		HandRightX:     raw.HandRightX,
		HandRightY:     raw.HandRightY,
		Idle:           b.manager.Idle(),
		AbsenceSeconds: b.manager.Absence().Seconds(),
		Frames:         b.frames,
		DroppedFrames:  b.dropped,
	})
}

// show feeds the dashboard camera feed and the local preview. It
// returns false when the preview window was closed.
func (b *Bridge) show(img *gocv.Mat, raw state.Result) bool {
	if b.monitor != nil && b.monitor.Watching() {
		if data, err := preview.EncodeJPEG(*img); err == nil {
			b.monitor.SendFrame(data)
		} else {
			log.Warn("frame encode failed", "error", err)
		}
	}
	if b.preview == nil {
		return true
	}
	return b.preview.Draw(img, b.manager.Current(), raw, b.manager.Idle())
}
