package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/pkg/middleware"
	"github.com/pageturn/bookclub-chat/pkg/response"
)

func (h *Handler) sendMessage(c *gin.Context) {
	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), middleware.GetDisplayName(c), &req)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Created(c, msg)
}

func (h *Handler) history(c *gin.Context) {
	beforeID, _ := strconv.ParseInt(c.DefaultQuery("before_id", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	page, err := h.messages.History(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), beforeID, limit)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, page)
}

func messageIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("messageID"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid message id")
		return 0, false
	}
	return id, true
}

func (h *Handler) deleteMessage(c *gin.Context) {
	id, ok := messageIDParam(c)
	if !ok {
		return
	}

	err := h.messages.Delete(c.Request.Context(), c.Param("id"), id, middleware.GetUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "message deleted", nil)
}

func (h *Handler) hideMessage(c *gin.Context) {
	id, ok := messageIDParam(c)
	if !ok {
		return
	}

	err := h.messages.Hide(c.Request.Context(), c.Param("id"), id, middleware.GetUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "message hidden", nil)
}

func (h *Handler) unhideMessage(c *gin.Context) {
	id, ok := messageIDParam(c)
	if !ok {
		return
	}

	err := h.messages.Unhide(c.Request.Context(), c.Param("id"), id, middleware.GetUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "message unhidden", nil)
}
