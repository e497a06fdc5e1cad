// Watch - tail the monitor's live state feed from a terminal
//
// Connects to a running puppet's /ws/state endpoint and prints change
// events as they happen. Snapshots are skipped unless -snapshots is
// set, so the output stays readable during a show.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type event struct {
	Type  string `json:"type"`
	Field string `json:"field"`
	Value string `json:"value"`
	At    string `json:"at"`

	Proximity  string `json:"proximity"`
	Expression string `json:"expression"`
	Gesture    string `json:"gesture"`
	Idle       bool   `json:"idle"`
}

func main() {
	addr := flag.String("addr", "localhost:8089", "Monitor address")
	snapshots := flag.Bool("snapshots", false, "Also print per-frame snapshots")
	flag.Parse()

	url := fmt.Sprintf("ws://%s/ws/state", *addr)
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.Dial(url, nil)
	if err != nil {
		fmt.Printf("❌ Failed to connect to %s: %v\n", url, err)
		os.Exit(1)
	}
	defer ws.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		ws.Close()
		os.Exit(0)
	}()

	fmt.Printf("👀 Watching %s (Ctrl+C to stop)\n\n", url)

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			fmt.Printf("Feed closed: %v\n", err)
			return
		}

		var ev event
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "change":
			fmt.Printf("%s  %s = %s\n", time.Now().Format("15:04:05.000"), ev.Field, ev.Value)
		case "state":
			if *snapshots {
				idle := ""
				if ev.Idle {
					idle = "  [idle]"
				}
				fmt.Printf("%s  %s / %s / %s%s\n", time.Now().Format("15:04:05.000"),
					ev.Proximity, ev.Expression, ev.Gesture, idle)
			}
		}
	}
}
