// Package handler is the gin HTTP surface of the backend.
package handler

import (
	"net/http"

	"civicdesk/backend/internal/auth"
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/eventhub"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/obs"
	"civicdesk/backend/internal/presence"
	"civicdesk/backend/internal/storage"
	"civicdesk/backend/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds the services the routes call into.
type Handler struct {
	Auth       *auth.Service
	Complaints *complaint.Service
	Views      *views.Service
	Roster     *presence.Roster
	Storage    storage.Storage
	// Hub may be nil, in which case /ws is not routed.
	Hub *eventhub.Hub
	// Languages limits the profile language to loaded translations. Empty
	// accepts any code.
	Languages []string
	Logger    *zap.Logger
}

func NewHandler(a *auth.Service, c *complaint.Service, v *views.Service, r *presence.Roster, s storage.Storage, hub *eventhub.Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Auth: a, Complaints: c, Views: v, Roster: r, Storage: s, Hub: hub, Logger: logger}
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.Use(obs.GinMiddleware(h.Logger))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(obs.Handler()))

	a := r.Group("/auth")
	a.POST("/register", h.RegisterProfile)
	a.POST("/login", h.Login)
	a.POST("/logout", h.Logout)

	authed := r.Group("/", h.RequireAuth())
	authed.GET("/me", h.GetMe)
	authed.PATCH("/me", h.PatchMe)
	authed.POST("/me/heartbeat", h.Heartbeat)

	citizen := authed.Group("/", RequireRole(models.RoleCitizen))
	citizen.POST("/complaints", h.SubmitComplaint)
	citizen.GET("/complaints/mine", h.ListMine)

	officer := authed.Group("/officer", RequireRole(models.RoleOfficer))
	officer.GET("/complaints", h.OfficerDashboard)
	officer.GET("/presence", h.OfficerPresence)

	worker := authed.Group("/worker", RequireRole(models.RoleWorker))
	worker.GET("/tasks", h.WorkerTasks)

	staff := authed.Group("/", RequireRole(models.RoleOfficer, models.RoleWorker))
	staff.POST("/complaints/:id/status", h.AdvanceStatus)

	if h.Hub != nil {
		r.GET("/ws", h.ServeWebSocket)
	}
}
