package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceio/internal/analytics"
)

type Analytics interface {
	Semesters(ctx context.Context) ([]analytics.SemesterInfo, error)
	Overview(ctx context.Context) (analytics.Overview, error)
	Semester(ctx context.Context, id int64) (analytics.SemesterReport, error)
}

type AnalyticsHandler struct {
	svc Analytics
}

func NewAnalyticsHandler(svc Analytics) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) Register(_, private gin.IRoutes) {
	private.GET("/analytics/semesters", h.Semesters)
	private.GET("/analytics", h.Overview)
	private.GET("/analytics/semester/:semesterId", h.Semester)
}

func (h *AnalyticsHandler) Semesters(c *gin.Context) {
	out, err := h.svc.Semesters(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) Overview(c *gin.Context) {
	out, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) Semester(c *gin.Context) {
	id, ok := idParam(c, "semesterId")
	if !ok {
		return
	}
	out, err := h.svc.Semester(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
