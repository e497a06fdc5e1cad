package monitor

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/studiolumen/light-puppet/internal/log"
	"github.com/studiolumen/light-puppet/pkg/state"
)

// Snapshot is the dashboard view of one moment: the confirmed state,
// the latest continuous values, and loop counters.
type Snapshot struct {
	Proximity      string  `json:"proximity"`
	Expression     string  `json:"expression"`
	Gesture        string  `json:"gesture"`
	ProximityValue float64 `json:"proximity_value"`
	FaceX          float64 `json:"face_x"`
	FaceY          float64 `json:"face_y"`
	HandLeftX      float64 `json:"hand_left_x"`
	HandLeftY      float64 `json:"hand_left_y"`
	HandRightX     float64 `json:"hand_right_x"`
	HandRightY     float64 `json:"hand_right_y"`
	Idle           bool    `json:"idle"`
	AbsenceSeconds float64 `json:"absence_seconds"`
	Frames         uint64  `json:"frames"`
	DroppedFrames  uint64  `json:"dropped_frames"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

type changeEvent struct {
	Type  string `json:"type"`
	Field string `json:"field"`
	Value string `json:"value"`
	At    string `json:"at"`
}

type snapshotEvent struct {
	Type string `json:"type"`
	Snapshot
}

// Server is the dashboard server: /api/state and /api/config over
// REST, /ws/state for live events, /ws/camera for preview frames.
type Server struct {
	app  *fiber.App
	port int

	mu       sync.RWMutex
	snapshot Snapshot
	config   interface{}

	stateHub  *Hub
	cameraHub *Hub

	started time.Time
}

// NewServer creates the dashboard server. runningConfig is served
// verbatim at /api/config so an operator can see what the process
// actually loaded.
func NewServer(port int, runningConfig interface{}) *Server {
	s := &Server{
		port:      port,
		config:    runningConfig,
		stateHub:  NewHub("state"),
		cameraHub: NewHub("camera"),
		started:   time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "light-puppet monitor",
		DisableStartupMessage: true,
	})

	// CORS for local dashboards
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/config", s.handleConfig)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.handleStateWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

func (s *Server) handleState(c *fiber.Ctx) error {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	snap.UptimeSeconds = time.Since(s.started).Seconds()
	return c.JSON(snap)
}

func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(s.config)
}

func (s *Server) handleStateWS(conn *websocket.Conn) {
	s.stateHub.Attach(conn)
}

func (s *Server) handleCameraWS(conn *websocket.Conn) {
	s.cameraHub.Attach(conn)
}

// PublishSnapshot stores the latest snapshot and broadcasts it on the
// state feed.
func (s *Server) PublishSnapshot(snap Snapshot) {
	snap.UptimeSeconds = time.Since(s.started).Seconds()
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	s.stateHub.BroadcastJSON(snapshotEvent{Type: "state", Snapshot: snap})
}

// PublishChange broadcasts one confirmed change event.
func (s *Server) PublishChange(ch state.Change) {
	s.stateHub.BroadcastJSON(changeEvent{
		Type:  "change",
		Field: string(ch.Field),
		Value: ch.Value,
		At:    time.Now().Format(time.RFC3339Nano),
	})
}

// SendFrame broadcasts a JPEG preview frame when someone is watching.
func (s *Server) SendFrame(jpeg []byte) {
	if s.cameraHub.ClientCount() == 0 {
		return
	}
	s.cameraHub.BroadcastBinary(jpeg)
}

// Watching reports whether any camera-feed client is connected.
func (s *Server) Watching() bool {
	return s.cameraHub.ClientCount() > 0
}

// Serve runs the hubs and blocks serving HTTP on ln.
func (s *Server) Serve(ln net.Listener) error {
	go s.stateHub.Run()
	go s.cameraHub.Run()
	log.Info("monitor listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// Start listens on the configured port and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// StartAsync serves in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("monitor server error", "error", err)
		}
	}()
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
