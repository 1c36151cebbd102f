package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/service"
	"github.com/pageturn/bookclub-chat/pkg/log"
	"github.com/pageturn/bookclub-chat/pkg/middleware"
	"github.com/pageturn/bookclub-chat/pkg/response"
)

// Handler bundles the HTTP surface over the service layer.
type Handler struct {
	rooms         service.RoomService
	messages      service.MessageService
	announcements service.AnnouncementService
	schedules     service.ScheduleService
	polls         service.PollService
	ws            *WSHandler
}

func New(
	rooms service.RoomService,
	messages service.MessageService,
	announcements service.AnnouncementService,
	schedules service.ScheduleService,
	polls service.PollService,
	ws *WSHandler,
) *Handler {
	return &Handler{
		rooms:         rooms,
		messages:      messages,
		announcements: announcements,
		schedules:     schedules,
		polls:         polls,
		ws:            ws,
	}
}

// RegisterRoutes mounts every route under /api/v1 behind auth.
func (h *Handler) RegisterRoutes(r *gin.Engine, auth *middleware.AuthMiddleware) {
	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1", auth.RequireAuth())

	rooms := v1.Group("/rooms")
	rooms.POST("", h.createRoom)
	rooms.GET("", h.listRooms)
	rooms.POST("/:id/join", h.joinRoom)
	rooms.POST("/:id/leave", h.leaveRoom)
	rooms.DELETE("/:id", h.destroyRoom)
	rooms.POST("/:id/pin", h.pinRoom)
	rooms.DELETE("/:id/pin", h.unpinRoom)
	rooms.POST("/:id/mute", h.muteMembership)
	rooms.DELETE("/:id/mute", h.unmuteMembership)
	rooms.POST("/:id/kick", h.kickMember)

	rooms.POST("/:id/messages", h.sendMessage)
	rooms.GET("/:id/messages", h.history)
	rooms.DELETE("/:id/messages/:messageID", h.deleteMessage)
	rooms.POST("/:id/messages/:messageID/hide", h.hideMessage)
	rooms.DELETE("/:id/messages/:messageID/hide", h.unhideMessage)

	rooms.POST("/:id/announcements", h.createAnnouncement)
	rooms.GET("/:id/announcements", h.listAnnouncements)
	rooms.GET("/:id/announcements/:announcementID", h.getAnnouncement)
	rooms.PUT("/:id/announcements/:announcementID", h.updateAnnouncement)
	rooms.DELETE("/:id/announcements/:announcementID", h.deleteAnnouncement)

	rooms.POST("/:id/schedules", h.createSchedule)
	rooms.GET("/:id/schedules", h.listSchedules)
	rooms.GET("/:id/schedules/:scheduleID", h.getSchedule)
	rooms.PUT("/:id/schedules/:scheduleID", h.updateSchedule)
	rooms.DELETE("/:id/schedules/:scheduleID", h.deleteSchedule)
	rooms.POST("/:id/schedules/:scheduleID/join", h.joinSchedule)

	rooms.POST("/:id/polls", h.createPoll)
	rooms.GET("/:id/polls/:pollID", h.getPoll)
	rooms.POST("/:id/polls/:pollID/vote", h.vote)
	rooms.GET("/:id/polls/:pollID/result", h.pollResult)

	// The websocket handshake authenticates itself (header or query
	// token) so browsers can connect.
	r.GET("/api/v1/rooms/:id/ws", h.ws.Serve)
}

// renderError maps the service error taxonomy onto HTTP statuses.
func renderError(c *gin.Context, err error) {
	msg := apperr.MessageOf(err)
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		response.BadRequest(c, msg)
	case apperr.KindAuthorization:
		response.Forbidden(c, msg)
	case apperr.KindNotFound:
		response.NotFound(c, msg)
	case apperr.KindConflict:
		response.Conflict(c, msg)
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("request failed")
		response.InternalError(c, "internal error")
	}
}
