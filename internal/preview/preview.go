// Package preview renders the capture loop into a local window and
// encodes frames for the dashboard camera feed.
package preview

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/pkg/state"
)

var statusColor = color.RGBA{R: 0, G: 255, B: 128, A: 0}

// Window shows camera frames with the confirmed state overlaid.
type Window struct {
	win  *gocv.Window
	open bool
}

// NewWindow opens the preview window.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title), open: true}
}

// Draw overlays the confirmed state and raw landmark markers onto img
// and shows it. It returns false once the user closes the window or
// presses q or ESC.
func (w *Window) Draw(img *gocv.Mat, c state.Confirmed, raw state.Result, idle bool) bool {
	if !w.open {
		return false
	}

	lines := []string{
		fmt.Sprintf("proximity: %s (%.3f)", c.Proximity, raw.ProximityValue),
		fmt.Sprintf("expression: %s", c.Expression),
		fmt.Sprintf("gesture: %s", c.Gesture),
	}
	if idle {
		lines = append(lines, "idle")
	}
	for i, line := range lines {
		gocv.PutText(img, line, image.Pt(10, 24+i*22), gocv.FontHersheySimplex, 0.6, statusColor, 2)
	}

	drawMarker(img, raw.FaceX, raw.FaceY, 8)
	drawMarker(img, raw.HandLeftX, raw.HandLeftY, 5)
	drawMarker(img, raw.HandRightX, raw.HandRightY, 5)

	w.win.IMShow(*img)
	key := w.win.WaitKey(1)
	if key == 27 || key == 'q' {
		w.open = false
	}
	if w.win.GetWindowProperty(gocv.WindowPropertyVisible) < 1 {
		w.open = false
	}
	return w.open
}

// drawMarker circles a normalized landmark position, skipping the
// not-visible sentinel.
func drawMarker(img *gocv.Mat, x, y float64, radius int) {
	if x == state.NotVisible || y == state.NotVisible {
		return
	}
	center := image.Pt(int(x*float64(img.Cols())), int(y*float64(img.Rows())))
	gocv.Circle(img, center, radius, statusColor, 2)
}

// Close releases the window.
func (w *Window) Close() error {
	w.open = false
	return w.win.Close()
}

// EncodeJPEG encodes img for the dashboard camera feed.
func EncodeJPEG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	// the buffer is backed by native memory, copy before Close
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}
