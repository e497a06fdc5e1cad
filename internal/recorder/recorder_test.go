package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/studiolumen/light-puppet/pkg/state"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordAndReadBackSession(t *testing.T) {
	r := openTestRecorder(t)

	id, err := r.BeginSession(map[string]int{"debounce_frames": 5})
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if id == "" {
		t.Fatal("BeginSession returned empty id")
	}

	at := time.UnixMilli(1700000000000)

	first := state.NewResult()
	first.Proximity = state.ProximityClose
	first.ProximityValue = 0.8
	first.FaceX = 0.5
	first.FaceY = 0.4
	if err := r.RecordFrame(at, first); err != nil {
		t.Fatalf("RecordFrame: %v", err)
	}

	second := state.NewResult()
	second.Proximity = state.ProximityClose
	second.Expression = state.ExpressionSmile
	if err := r.RecordFrame(at.Add(33*time.Millisecond), second); err != nil {
		t.Fatalf("RecordFrame: %v", err)
	}
	err = r.RecordChanges(at.Add(33*time.Millisecond), []state.Change{
		{Field: state.FieldProximity, Value: string(state.ProximityClose)},
	})
	if err != nil {
		t.Fatalf("RecordChanges: %v", err)
	}

	sessions, err := r.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(sessions))
	}
	if sessions[0].ID != id {
		t.Errorf("session ID = %s, want %s", sessions[0].ID, id)
	}
	if sessions[0].Frames != 2 {
		t.Errorf("session Frames = %d, want 2", sessions[0].Frames)
	}

	frames, err := r.Frames(id)
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
	if frames[0].Seq != 1 || frames[1].Seq != 2 {
		t.Errorf("seqs = %d,%d, want 1,2", frames[0].Seq, frames[1].Seq)
	}
	if frames[0].Result.Proximity != state.ProximityClose {
		t.Errorf("frame 1 proximity = %s, want close", frames[0].Result.Proximity)
	}
	if frames[0].Result.ProximityValue != 0.8 {
		t.Errorf("frame 1 proximity value = %v, want 0.8", frames[0].Result.ProximityValue)
	}
	if frames[0].Result.HandLeftX != state.NotVisible {
		t.Errorf("frame 1 hand_left_x = %v, want %v", frames[0].Result.HandLeftX, state.NotVisible)
	}
	if frames[1].Result.Expression != state.ExpressionSmile {
		t.Errorf("frame 2 expression = %s, want smile", frames[1].Result.Expression)
	}
	if !frames[0].At.Equal(at) {
		t.Errorf("frame 1 at = %v, want %v", frames[0].At, at)
	}

	changes, err := r.Changes(id)
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("len(changes) = %d, want 1", len(changes))
	}
	if changes[0].Seq != 2 {
		t.Errorf("change seq = %d, want 2", changes[0].Seq)
	}
	if changes[0].Field != "proximity" || changes[0].Value != "close" {
		t.Errorf("change = %s=%s, want proximity=close", changes[0].Field, changes[0].Value)
	}
}

func TestRecordFrameWithoutSession(t *testing.T) {
	r := openTestRecorder(t)

	if err := r.RecordFrame(time.Now(), state.NewResult()); err == nil {
		t.Error("RecordFrame should fail without an active session")
	}
	err := r.RecordChanges(time.Now(), []state.Change{{Field: state.FieldGesture, Value: "none"}})
	if err == nil {
		t.Error("RecordChanges should fail without an active session")
	}
}

func TestRecordChangesEmptyIsNoop(t *testing.T) {
	r := openTestRecorder(t)

	// No session is active, but an empty batch never touches the database.
	if err := r.RecordChanges(time.Now(), nil); err != nil {
		t.Errorf("RecordChanges(nil) = %v, want nil", err)
	}
}

func TestBeginSessionRestartsNumbering(t *testing.T) {
	r := openTestRecorder(t)

	first, err := r.BeginSession(nil)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if err := r.RecordFrame(time.Now(), state.NewResult()); err != nil {
		t.Fatalf("RecordFrame: %v", err)
	}
	if err := r.RecordFrame(time.Now(), state.NewResult()); err != nil {
		t.Fatalf("RecordFrame: %v", err)
	}

	second, err := r.BeginSession(nil)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if second == first {
		t.Fatal("sessions should get distinct ids")
	}
	if err := r.RecordFrame(time.Now(), state.NewResult()); err != nil {
		t.Fatalf("RecordFrame: %v", err)
	}

	frames, err := r.Frames(second)
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if len(frames) != 1 || frames[0].Seq != 1 {
		t.Errorf("second session frames = %+v, want single seq 1", frames)
	}
}

func TestFramesOfUnknownSession(t *testing.T) {
	r := openTestRecorder(t)

	frames, err := r.Frames("nope")
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("len(frames) = %d, want 0", len(frames))
	}
}

func TestFramesRejectsCorruptValues(t *testing.T) {
	r := openTestRecorder(t)

	id, err := r.BeginSession(nil)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	_, err = r.db.Exec(`INSERT INTO frames (
		session_id, seq, at,
		proximity, expression, gesture, proximity_value,
		face_x, face_y, hand_left_x, hand_left_y, hand_right_x, hand_right_y
	) VALUES (?, 1, 0, 'sideways', 'none', 'none', 0, -1, -1, -1, -1, -1, -1)`, id)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := r.Frames(id); err == nil {
		t.Error("Frames should reject an unknown proximity value")
	}
}
