package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/pkg/middleware"
	"github.com/pageturn/bookclub-chat/pkg/response"
)

func (h *Handler) createRoom(c *gin.Context) {
	var req domain.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	room, err := h.rooms.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Created(c, room)
}

func (h *Handler) listRooms(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, err := h.rooms.List(c.Request.Context(), middleware.GetUserID(c), page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *Handler) joinRoom(c *gin.Context) {
	err := h.rooms.Join(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "joined room", nil)
}

func (h *Handler) leaveRoom(c *gin.Context) {
	err := h.rooms.Leave(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "left room", nil)
}

func (h *Handler) destroyRoom(c *gin.Context) {
	confirm := c.Query("confirm") == "true"
	err := h.rooms.Destroy(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), confirm)
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "room destroyed", nil)
}

func (h *Handler) pinRoom(c *gin.Context) {
	err := h.rooms.Pin(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "room pinned", nil)
}

func (h *Handler) unpinRoom(c *gin.Context) {
	err := h.rooms.Unpin(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "room unpinned", nil)
}

func (h *Handler) muteMembership(c *gin.Context) {
	var req domain.MuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.rooms.Mute(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Until)
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "membership muted", nil)
}

func (h *Handler) unmuteMembership(c *gin.Context) {
	err := h.rooms.Unmute(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "membership unmuted", nil)
}

func (h *Handler) kickMember(c *gin.Context) {
	var req domain.KickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.rooms.Kick(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), &req)
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "member kicked", nil)
}
