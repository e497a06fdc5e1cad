// Replay - rerun recorded sessions through the conditioner
//
// Reads raw frames from a recording database and pushes them through
// a fresh state manager, optionally with different debounce and idle
// parameters. Useful for tuning without a camera: record once, then
// replay until the emitted changes feel right.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/studiolumen/light-puppet/internal/config"
	"github.com/studiolumen/light-puppet/internal/recorder"
	"github.com/studiolumen/light-puppet/internal/timeutil"
	"github.com/studiolumen/light-puppet/pkg/notify"
	"github.com/studiolumen/light-puppet/pkg/state"
)

func main() {
	def := config.Default().State

	dbPath := flag.String("db", "puppet.db", "Recording database")
	list := flag.Bool("list", false, "List recorded sessions and exit")
	session := flag.String("session", "", "Session id to replay")
	debounce := flag.Int("debounce", def.DebounceFrames, "Debounce window in frames")
	idle := flag.Float64("idle", def.IdleTimeoutSeconds, "Idle timeout in seconds")
	oscHost := flag.String("osc-host", "", "Re-emit changes over OSC to this host (print only when empty)")
	oscPort := flag.Int("osc-port", 7000, "OSC port for -osc-host")
	flag.Parse()

	if *debounce < 1 || *idle <= 0 {
		fatal(fmt.Errorf("debounce must be >= 1 and idle > 0"))
	}

	rec, err := recorder.Open(*dbPath)
	if err != nil {
		fatal(err)
	}
	defer rec.Close()

	if *list || *session == "" {
		listSessions(rec)
		return
	}

	frames, err := rec.Frames(*session)
	if err != nil {
		fatal(err)
	}
	if len(frames) == 0 {
		fatal(fmt.Errorf("session %s has no frames", *session))
	}

	var sink notify.Notifier
	if *oscHost != "" {
		sink = notify.NewOSC(*oscHost, *oscPort, false)
	}

	// drive the idle timer from the recorded timestamps
	clock := timeutil.NewMockClock(frames[0].At)
	mgr := state.NewManager(*debounce, time.Duration(*idle*float64(time.Second)), clock)

	fmt.Printf("Replaying %s: %d frames, debounce=%d idle=%.1fs\n\n",
		*session, len(frames), *debounce, *idle)

	total := 0
	for _, f := range frames {
		clock.Set(f.At)
		for _, ch := range mgr.Update(f.Result) {
			total++
			fmt.Printf("%6d  %s  %s = %s\n", f.Seq, f.At.Format("15:04:05.000"), ch.Field, ch.Value)
			if sink != nil {
				if err := sink.SendChange(ch.Field, ch.Value); err != nil {
					fmt.Printf("⚠️  OSC send failed: %v\n", err)
				}
			}
		}
	}

	fmt.Printf("\n%d frames in, %d changes out\n", len(frames), total)
}

func listSessions(rec *recorder.Recorder) {
	sessions, err := rec.ListSessions()
	if err != nil {
		fatal(err)
	}
	if len(sessions) == 0 {
		fmt.Println("No recorded sessions.")
		return
	}
	for _, s := range sessions {
		fmt.Printf("%-36s  %s  %6d frames\n",
			s.ID, s.StartedAt.Format("2006-01-02 15:04:05"), s.Frames)
	}
}

func fatal(err error) {
	fmt.Printf("❌ %v\n", err)
	os.Exit(1)
}
