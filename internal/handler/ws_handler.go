package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pageturn/bookclub-chat/internal/hub"
	"github.com/pageturn/bookclub-chat/internal/repository"
	"github.com/pageturn/bookclub-chat/pkg/log"
	"github.com/pageturn/bookclub-chat/pkg/middleware"
	"github.com/pageturn/bookclub-chat/pkg/token"
)

// WSHandler admits websocket connections into the session registry.
type WSHandler struct {
	hub      *hub.Hub
	rooms    repository.RoomRepository
	tokens   *token.Manager
	cfg      hub.Config
	upgrader websocket.Upgrader
}

func NewWSHandler(h *hub.Hub, rooms repository.RoomRepository, tokens *token.Manager, cfg hub.Config) *WSHandler {
	return &WSHandler{
		hub:    h,
		rooms:  rooms,
		tokens: tokens,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Serve performs the admission handshake: identity from the bearer
// token (header, or `token` query param for browsers), membership
// check against the room in the path, then upgrade and register.
// Rejections happen before the upgrade so they surface as plain HTTP
// statuses.
func (h *WSHandler) Serve(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing room id"})
		return
	}

	raw := bearerToken(c)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := h.tokens.Verify(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	m, err := h.rooms.GetMembership(c.Request.Context(), roomID, claims.UserID)
	if err != nil || !m.Active {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
		return
	}

	l := log.Ctx(c.Request.Context())

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the response.
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), roomID, claims.UserID, h.hub, conn, h.cfg)
	h.hub.Register(client)

	l.Debug().
		Str(log.FieldRoomID, roomID).
		Str(log.FieldUserID, claims.UserID).
		Msg("websocket client admitted")

	go client.WritePump()
	go client.ReadPump()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader(middleware.AuthHeaderKey)
	if strings.HasPrefix(header, middleware.BearerPrefix) {
		return strings.TrimPrefix(header, middleware.BearerPrefix)
	}
	return c.Query("token")
}
