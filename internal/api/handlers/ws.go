package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/internal/recommend"
	"github.com/wonny/mdhealth/pkg/logger"
)

const (
	// Ping/Pong settings
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// RunFeed delivers finished runs
type RunFeed interface {
	Latest() (*contracts.AnalysisRun, error)
	Subscribe() (<-chan *contracts.AnalysisRun, func())
}

// RunEvent is pushed to websocket clients after every analysis run
type RunEvent struct {
	Type      string             `json:"type"`
	RunID     string             `json:"run_id"`
	Source    string             `json:"source"`
	Timestamp time.Time          `json:"timestamp"`
	Scores    map[string]float64 `json:"scores"`
	Summary   contracts.Summary  `json:"summary"`
	Issues    int                `json:"issues"`
}

func newRunEvent(run *contracts.AnalysisRun) RunEvent {
	return RunEvent{
		Type:      "run",
		RunID:     run.ID,
		Source:    run.Source,
		Timestamp: run.StartedAt,
		Scores:    run.Scores,
		Summary:   recommend.Summarize(run.Scores),
		Issues:    run.TotalIssues(),
	}
}

// StreamHandler pushes analysis results to dashboards over websocket
// ⭐ SSOT: 실시간 분석 결과 푸시는 이 핸들러에서만
type StreamHandler struct {
	feed     RunFeed
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(feed RunFeed, log *logger.Logger) *StreamHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &StreamHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true }, // 대시보드는 별도 origin
		},
		logger: log.WithComponent("ws"),
	}
}

// Runs upgrades the connection and streams one event per finished run.
// The latest run, if any, is sent immediately.
// GET /ws/runs
func (h *StreamHandler) Runs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	runs, cancel := h.feed.Subscribe()
	defer cancel()

	h.logger.WithField("remote", r.RemoteAddr).Info("Dashboard connected")

	// reader: pongs and close frames only
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if run, err := h.feed.Latest(); err == nil {
		if err := h.write(conn, newRunEvent(run)); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			h.logger.WithField("remote", r.RemoteAddr).Info("Dashboard disconnected")
			return
		case run, ok := <-runs:
			if !ok {
				return
			}
			if err := h.write(conn, newRunEvent(run)); err != nil {
				h.logger.WithError(err).Debug("Websocket write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				h.logger.WithError(err).Debug("Failed to send ping")
				return
			}
		}
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, event RunEvent) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(event)
}
