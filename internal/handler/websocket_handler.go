package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/psds-microservice/video-management-service/internal/auth"
	"github.com/psds-microservice/video-management-service/internal/config"
	"github.com/psds-microservice/video-management-service/internal/model"
	"github.com/psds-microservice/video-management-service/internal/service"
	"go.uber.org/zap"
)

// VideoWSHandler handles viewer WebSocket connections on /ws/video.
// One read loop per connection is the sequential control path; the write pump
// drains the connection's outbound queue.
type VideoWSHandler struct {
	orch       *service.Orchestrator
	ids        auth.IdentityProvider
	upgrader   websocket.Upgrader
	sendBuffer int
	maxMsgSize int64
	appCtx     context.Context
	log        *zap.Logger
}

// NewVideoWSHandler creates the WebSocket handler.
func NewVideoWSHandler(orch *service.Orchestrator, ids auth.IdentityProvider, cfg *config.Config, log *zap.Logger) *VideoWSHandler {
	return &VideoWSHandler{
		orch: orch,
		ids:  ids,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WSReadBufferSize,
			WriteBufferSize: cfg.WSWriteBufferSize,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
		sendBuffer: cfg.SendBufferMessages,
		maxMsgSize: cfg.WSMaxMessageSize,
		log:        log,
	}
}

// SetContext sets the app context bounding stream lifetimes (shutdown propagation).
func (h *VideoWSHandler) SetContext(ctx context.Context) { h.appCtx = ctx }

func (h *VideoWSHandler) ctx() context.Context {
	if h.appCtx != nil {
		return h.appCtx
	}
	return context.Background()
}

// ServeWS resolves the viewer's identity, upgrades the request and runs the
// connection until the peer goes away.
func (h *VideoWSHandler) ServeWS(c *gin.Context) {
	identity, err := h.ids.Resolve(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()
	if h.maxMsgSize > 0 {
		ws.SetReadLimit(h.maxMsgSize)
	}

	conn := service.NewConn(h.ctx(), identity, h.sendBuffer, h.log)
	h.log.Info("viewer connected",
		zap.String("connection_id", conn.ID()),
		zap.String("user_id", identity.UserID),
		zap.String("username", identity.Username))

	go h.writePump(ws, conn)
	h.readPump(ws, conn)

	h.orch.Disconnect(h.ctx(), conn)
	h.log.Info("viewer disconnected",
		zap.String("connection_id", conn.ID()),
		zap.String("username", identity.Username))
}

func (h *VideoWSHandler) readPump(ws *websocket.Conn, conn *service.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("read error", zap.Error(err))
			}
			return
		}
		var msg model.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.Warn("malformed control message",
				zap.String("connection_id", conn.ID()), zap.Error(err))
			_ = conn.Send(h.ctx(), model.NewError("Invalid message"))
			continue
		}
		h.orch.HandleMessage(h.ctx(), conn, msg)
	}
}

func (h *VideoWSHandler) writePump(ws *websocket.Conn, conn *service.Conn) {
	for {
		select {
		case data := <-conn.Outbound():
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = ws.Close()
				return
			}
		case <-conn.Done():
			_ = ws.Close()
			return
		}
	}
}
