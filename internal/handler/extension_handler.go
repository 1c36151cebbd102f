package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/pkg/middleware"
	"github.com/pageturn/bookclub-chat/pkg/response"
)

func (h *Handler) createAnnouncement(c *gin.Context) {
	var req domain.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	a, err := h.announcements.Create(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), middleware.GetDisplayName(c), &req)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Created(c, a)
}

func (h *Handler) listAnnouncements(c *gin.Context) {
	list, err := h.announcements.List(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *Handler) getAnnouncement(c *gin.Context) {
	a, err := h.announcements.Get(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), c.Param("announcementID"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, a)
}

func (h *Handler) updateAnnouncement(c *gin.Context) {
	var req domain.UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	a, err := h.announcements.Update(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), middleware.GetDisplayName(c), c.Param("announcementID"), &req)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, a)
}

func (h *Handler) deleteAnnouncement(c *gin.Context) {
	err := h.announcements.Delete(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), middleware.GetDisplayName(c), c.Param("announcementID"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "announcement deleted", nil)
}

func (h *Handler) createSchedule(c *gin.Context) {
	var req domain.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	s, err := h.schedules.Create(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), middleware.GetDisplayName(c), &req)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Created(c, s)
}

func (h *Handler) listSchedules(c *gin.Context) {
	list, err := h.schedules.List(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *Handler) getSchedule(c *gin.Context) {
	s, err := h.schedules.Get(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), c.Param("scheduleID"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, s)
}

func (h *Handler) updateSchedule(c *gin.Context) {
	var req domain.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	s, err := h.schedules.Update(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), middleware.GetDisplayName(c), c.Param("scheduleID"), &req)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, s)
}

func (h *Handler) deleteSchedule(c *gin.Context) {
	err := h.schedules.Delete(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), middleware.GetDisplayName(c), c.Param("scheduleID"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "schedule deleted", nil)
}

func (h *Handler) joinSchedule(c *gin.Context) {
	err := h.schedules.Join(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), c.Param("scheduleID"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessMessage(c, "joined schedule", nil)
}

func pollIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("pollID"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid poll id")
		return 0, false
	}
	return id, true
}

func (h *Handler) createPoll(c *gin.Context) {
	var req domain.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	poll, err := h.polls.Create(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), middleware.GetDisplayName(c), &req)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Created(c, poll)
}

func (h *Handler) getPoll(c *gin.Context) {
	id, ok := pollIDParam(c)
	if !ok {
		return
	}

	poll, err := h.polls.Get(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), id)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, poll)
}

func (h *Handler) vote(c *gin.Context) {
	id, ok := pollIDParam(c)
	if !ok {
		return
	}

	var req domain.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.polls.Vote(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), id, &req)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) pollResult(c *gin.Context) {
	id, ok := pollIDParam(c)
	if !ok {
		return
	}

	result, err := h.polls.Result(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), id)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, result)
}
