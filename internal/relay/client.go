package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/radarjoki/backend/internal/config"
	"github.com/radarjoki/backend/pkg/logger"
)

// WSServer upgrades HTTP requests into relay sessions and runs the per
// connection read/write pumps.
type WSServer struct {
	service  *Service
	cfg      config.RelayConfig
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewWSServer creates the websocket endpoint for the relay.
func NewWSServer(service *Service, cfg config.RelayConfig, log *logger.Logger) *WSServer {
	return &WSServer{
		service: service,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Realtime connections are unauthenticated at this layer;
				// access control is the deployment's responsibility.
				return true
			},
		},
		logger: log.WithComponent("ws"),
	}
}

// Handle upgrades the request, registers a session, and starts the pumps.
func (srv *WSServer) Handle(c *gin.Context) {
	conn, err := srv.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		srv.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sess := srv.service.Registry().Register()
	log := srv.logger.WithSession(sess.ID)
	log.Info("client connected")

	go srv.writePump(conn, sess, log)
	go srv.readPump(conn, sess, log)
}

// readPump reads frames until the connection drops. Frames are handled
// synchronously so one session's sends reach the gateway in the order they
// arrived; a slow send stalls only this session, every other connection has
// its own pump.
func (srv *WSServer) readPump(conn *websocket.Conn, sess *Session, log *logger.Logger) {
	defer func() {
		srv.service.Registry().Unregister(sess.ID)
		conn.Close()
		log.Info("client disconnected")
	}()

	conn.SetReadLimit(srv.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(srv.cfg.ReadTimeoutDuration()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(srv.cfg.ReadTimeoutDuration()))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read error", "error", err)
			}
			return
		}
		srv.service.HandleClientMessage(context.Background(), sess.ID, raw)
	}
}

// writePump drains the session's outbound queue and keeps the connection
// alive with pings. It exits when the session is unregistered or a write
// fails.
func (srv *WSServer) writePump(conn *websocket.Conn, sess *Session, log *logger.Logger) {
	ticker := time.NewTicker(srv.cfg.PingIntervalDuration())
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	writeWait := srv.cfg.WriteTimeoutDuration()
	for {
		select {
		case <-sess.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-sess.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
