package camera

import (
	"errors"
	"testing"

	"github.com/studiolumen/light-puppet/internal/config"
)

func TestNewSelectsSourceByType(t *testing.T) {
	src, err := New(config.CameraConfig{Type: "webcam", DeviceIndex: 1, Width: 640, Height: 480, FPS: 30})
	if err != nil {
		t.Fatalf("webcam: %v", err)
	}
	if _, ok := src.(*WebcamSource); !ok {
		t.Errorf("webcam: got %T, want *WebcamSource", src)
	}

	src, err = New(config.CameraConfig{Type: "file", Path: "clip.mp4"})
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if _, ok := src.(*FileSource); !ok {
		t.Errorf("file: got %T, want *FileSource", src)
	}

	src, err = New(config.CameraConfig{Type: "stream", URL: "ws://localhost:8089/ws/camera"})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if _, ok := src.(*StreamSource); !ok {
		t.Errorf("stream: got %T, want *StreamSource", src)
	}
}

func TestNewAppliesPreset(t *testing.T) {
	src, err := New(config.CameraConfig{Type: "webcam", Preset: "720p"})
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	w, ok := src.(*WebcamSource)
	if !ok {
		t.Fatalf("got %T, want *WebcamSource", src)
	}
	if w.width != 1280 || w.height != 720 || w.fps != 30 {
		t.Errorf("preset 720p: got %dx%d@%d, want 1280x720@30", w.width, w.height, w.fps)
	}
}

func TestNewRejectsUnknownPreset(t *testing.T) {
	if _, err := New(config.CameraConfig{Type: "webcam", Preset: "8k"}); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestPresetLookup(t *testing.T) {
	for _, name := range PresetNames() {
		if GetPreset(name) == nil {
			t.Errorf("GetPreset(%q) = nil, want preset", name)
		}
	}
	if GetPreset("cinema") != nil {
		t.Error("GetPreset(cinema) should be nil")
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(config.CameraConfig{Type: "realsense"})
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	var unknownErr *UnknownTypeError
	if !errors.As(err, &unknownErr) {
		t.Errorf("got %T, want *UnknownTypeError", err)
	}
}

func TestReadWithoutStart(t *testing.T) {
	// Sources must not panic when read before Start or after Stop.
	w := NewWebcam(0, 640, 480, 30)
	if w.Read(nil) {
		t.Error("webcam Read before Start: got true, want false")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("webcam Stop before Start: %v", err)
	}

	f := NewFile("clip.mp4")
	if f.Read(nil) {
		t.Error("file Read before Start: got true, want false")
	}
	if err := f.Stop(); err != nil {
		t.Errorf("file Stop before Start: %v", err)
	}

	s := NewStream("ws://localhost:1/ws/camera")
	s.ready <- struct{}{}
	if s.Read(nil) {
		t.Error("stream Read without frames: got true, want false")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("stream Stop before Start: %v", err)
	}
}
