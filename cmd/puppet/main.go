// Puppet - camera to stage bridge for the light puppet installation
//
// Watches the scene through a webcam, conditions the raw detections
// into stable state, and emits changes over OSC and MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/studiolumen/light-puppet/internal/config"
	"github.com/studiolumen/light-puppet/internal/log"
	"github.com/studiolumen/light-puppet/internal/preview"
	"github.com/studiolumen/light-puppet/internal/recorder"
	"github.com/studiolumen/light-puppet/pkg/bridge"
	"github.com/studiolumen/light-puppet/pkg/camera"
	"github.com/studiolumen/light-puppet/pkg/detect"
	"github.com/studiolumen/light-puppet/pkg/monitor"
	"github.com/studiolumen/light-puppet/pkg/notify"
	"github.com/studiolumen/light-puppet/pkg/state"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (built-in defaults when empty)")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	showPreview := flag.Bool("preview", false, "Show the camera preview window")
	showMonitor := flag.Bool("monitor", false, "Serve the web monitor even if the config disables it")
	printDetections := flag.Bool("print", false, "Print confirmed changes to stdout")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fatal("config", err)
		}
	}
	config.ApplyEnv(&cfg)
	if *debug {
		cfg.LogLevel = "debug"
	}
	if *showPreview {
		cfg.Preview = true
	}
	if *showMonitor {
		cfg.Monitor.Enabled = true
	}
	if *printDetections {
		cfg.PrintDetections = true
	}
	if err := cfg.Validate(); err != nil {
		fatal("config", err)
	}
	log.Init(cfg.LogLevel)

	fmt.Println("🎭 Light Puppet - presence to stage bridge")
	fmt.Println("==========================================")

	cam, err := camera.New(cfg.Camera)
	if err != nil {
		fatal("camera", err)
	}

	pipe, err := detect.BuildPipeline(cfg.Detection)
	if err != nil {
		fatal("detection", err)
	}
	defer pipe.Close()

	notifier, err := buildNotifier(cfg)
	if err != nil {
		fatal("notifier", err)
	}
	defer notifier.Close()

	mgr := state.NewManager(cfg.State.DebounceFrames, cfg.State.IdleTimeout(), nil)

	b := bridge.New(cam, pipe, mgr, notifier)
	b.PrintDetections(cfg.PrintDetections)

	if cfg.Monitor.Enabled {
		srv := monitor.NewServer(cfg.Monitor.Port, cfg)
		srv.StartAsync()
		defer srv.Shutdown()
		b.AttachMonitor(srv)
		fmt.Printf("📡 Monitor on http://localhost:%d\n", cfg.Monitor.Port)
	}

	if cfg.Recorder.Enabled {
		rec, err := recorder.Open(cfg.Recorder.Path)
		if err != nil {
			fatal("recorder", err)
		}
		defer rec.Close()
		session, err := rec.BeginSession(cfg)
		if err != nil {
			fatal("recorder", err)
		}
		b.AttachRecorder(rec)
		fmt.Printf("💾 Recording session %s to %s\n", session, cfg.Recorder.Path)
	}

	if cfg.Preview {
		win := preview.NewWindow("light puppet")
		defer win.Close()
		b.AttachPreview(win)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := b.Run(ctx); err != nil {
		fatal("runtime", err)
	}
	fmt.Printf("\n👋 Done (%d frames, %d dropped)\n", b.Frames(), b.Dropped())
}

// buildNotifier assembles the enabled sinks. With nothing enabled the
// bridge still runs, changes just stay local.
func buildNotifier(cfg config.Config) (notify.Notifier, error) {
	var sinks []notify.Notifier
	if cfg.OSC.Enabled {
		sinks = append(sinks, notify.NewOSC(cfg.OSC.Host, cfg.OSC.Port, cfg.OSC.UseCodes))
	}
	if cfg.MQTT.Enabled {
		m, err := notify.NewMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.TopicPrefix)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, m)
	}
	switch len(sinks) {
	case 0:
		log.Warn("no notifier enabled, changes stay local")
		return notify.NewMulti(), nil
	case 1:
		return sinks[0], nil
	default:
		return notify.NewMulti(sinks...), nil
	}
}

func fatal(what string, err error) {
	fmt.Printf("❌ %s error: %v\n", what, err)
	os.Exit(1)
}
