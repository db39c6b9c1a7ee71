package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceio/internal/attendance"
)

type Attendance interface {
	Overview(ctx context.Context, studentID int64, date string) (attendance.Overview, error)
	Mark(ctx context.Context, studentID int64, req attendance.MarkRequest) (attendance.MarkResult, error)
	Delete(ctx context.Context, studentID, attendanceID int64) error
}

type AttendanceHandler struct {
	svc Attendance
}

func NewAttendanceHandler(svc Attendance) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

func (h *AttendanceHandler) Register(_, private gin.IRoutes) {
	private.GET("/attendance", h.Overview)
	private.POST("/attendance", h.Mark)
	private.DELETE("/attendance/:attendanceId", h.Delete)
}

// GET /api/attendance?date=YYYY-MM-DD
func (h *AttendanceHandler) Overview(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	ov, err := h.svc.Overview(c.Request.Context(), st.ID, c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// POST /api/attendance
func (h *AttendanceHandler) Mark(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	var req attendance.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "subjectId, lectureDate and status are required")
		return
	}
	res, err := h.svc.Mark(c.Request.Context(), st.ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DELETE /api/attendance/:attendanceId
func (h *AttendanceHandler) Delete(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "attendanceId")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), st.ID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance deleted successfully"})
}
