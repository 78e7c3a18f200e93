package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/examlane/examlane-backend/internal/middleware"
	"github.com/examlane/examlane-backend/internal/service"
	ws "github.com/examlane/examlane-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the authoritative exam countdown over WebSocket, so
// clients never have to trust their own clock.
type WSHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ClockStream godoc
// WS /ws/v1/exams/:exam_id/clock
// Pushes a tick with the remaining seconds every second. Sends an expired
// event and closes once the deadline passes. The client may also send ping
// and sync requests.
func (h *WSHandler) ClockStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := strconv.ParseInt(c.Param("exam_id"), 10, 64)
	if err != nil || examID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	exam, err := h.examService.GetExam(c.Request.Context(), examID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "exam not found"})
		return
	}

	start, err := h.examService.AttemptStartTime(c.Request.Context(), examID, claims.UserID)
	if err != nil || start.IsZero() {
		c.JSON(http.StatusForbidden, gin.H{"error": "attempt not started"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	deadline := start.Add(time.Duration(exam.DurationMinutes) * time.Minute)

	wsLog := h.log.With().
		Int64("user_id", claims.UserID).
		Int64("exam_id", examID).
		Logger()
	wsLog.Info().Msg("Clock stream connected")

	// Reader goroutine: only ping and sync requests come from the client, and
	// a read error means the connection is gone. quit is closed when this
	// handler returns so a forwarder parked on the requests channel never
	// outlives the stream.
	requests := make(chan ws.Action)
	readerDone := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		defer close(readerDone)
		h.forwardActions(conn, requests, quit, wsLog)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-readerDone:
			wsLog.Debug().Msg("Clock stream closed")
			return

		case action := <-requests:
			switch action {
			case ws.ActionPing:
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionSync:
				if h.sendTick(conn, deadline) {
					return
				}
			default:
				_ = ws.WriteError(conn, "unknown action: "+string(action))
			}

		case <-ticker.C:
			if h.sendTick(conn, deadline) {
				wsLog.Info().Msg("Attempt deadline reached")
				return
			}
		}
	}
}

// forwardActions reads client requests and forwards them to the stream loop
// until the connection fails or quit is closed.
func (h *WSHandler) forwardActions(conn *websocket.Conn, requests chan<- ws.Action, quit <-chan struct{}, log zerolog.Logger) {
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		select {
		case requests <- msg.Action:
		case <-quit:
			return
		}
	}
}

// sendTick pushes the remaining time. Returns true when the attempt is over
// (expired event sent or write failed) and the stream should end.
func (h *WSHandler) sendTick(conn *websocket.Conn, deadline time.Time) bool {
	now := time.Now()
	remaining := int(time.Until(deadline).Seconds())
	if remaining <= 0 {
		_ = ws.WriteTyped(conn, ws.ExpiredResponse{Event: ws.EventExpired})
		return true
	}

	err := ws.WriteTyped(conn, ws.TickResponse{
		Event:            ws.EventTick,
		RemainingSeconds: remaining,
		ServerUnix:       now.Unix(),
	})
	return err != nil
}
