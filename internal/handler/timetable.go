package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceio/internal/timetable"
)

type Timetables interface {
	Get(ctx context.Context, studentID int64) ([]timetable.SlotView, error)
	Save(ctx context.Context, studentID int64, req timetable.SaveRequest) (int, error)
}

type TimetableHandler struct {
	svc Timetables
}

func NewTimetableHandler(svc Timetables) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

func (h *TimetableHandler) Register(_, private gin.IRoutes) {
	private.GET("/timetable", h.Get)
	private.PUT("/timetable", h.Save)
	private.POST("/timetable", h.Save)
}

// GET /api/timetable
func (h *TimetableHandler) Get(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	slots, err := h.svc.Get(c.Request.Context(), st.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// PUT /api/timetable replaces the current-semester grid.
func (h *TimetableHandler) Save(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	var req timetable.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	n, err := h.svc.Save(c.Request.Context(), st.ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Timetable saved successfully", "count": n})
}
