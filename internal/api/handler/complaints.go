package handler

import (
	"fmt"
	"net/http"

	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/views"

	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	// From, when set, must equal the stored status.
	From string `json:"from"`
}

func (h *Handler) SubmitComplaint(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	actor := actorFrom(c)
	created, err := h.Complaints.Submit(c.Request.Context(), actor.UserID, req.Description, req.Category)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, views.NewItem(*created, actor.Role))
}

func (h *Handler) ListMine(c *gin.Context) {
	v, err := h.Views.Citizen(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) OfficerDashboard(c *gin.Context) {
	filter, err := optionalStatus(c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	v, err := h.Views.Officer(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) OfficerPresence(c *gin.Context) {
	v, err := h.Views.Presence(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// WorkerTasks defaults to the ongoing list.
func (h *Handler) WorkerTasks(c *gin.Context) {
	status := models.StatusOngoing
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		status = parsed
	}
	v, err := h.Views.Worker(c.Request.Context(), actorFrom(c), status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// AdvanceStatus moves a complaint to the requested status.
func (h *Handler) AdvanceStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	to, err := models.ParseStatus(req.Status)
	if err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	expected, err := optionalStatus(req.From)
	if err != nil {
		h.fail(c, err)
		return
	}

	actor := actorFrom(c)
	updated, err := h.Complaints.Advance(c.Request.Context(), actor, c.Param("id"), to, expected)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views.NewItem(*updated, actor.Role))
}

func optionalStatus(raw string) (*models.Status, error) {
	if raw == "" {
		return nil, nil
	}
	s, err := models.ParseStatus(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return &s, nil
}
