package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceio/internal/attendance"
	"attendanceio/internal/student"
)

type StudentDirectory interface {
	Search(ctx context.Context, query string) ([]student.SearchResult, error)
	ByID(ctx context.Context, id int64) (student.Student, error)
}

type Reports interface {
	Report(ctx context.Context, st student.Student) (attendance.StudentReport, error)
}

type SearchHandler struct {
	students StudentDirectory
	reports  Reports
}

func NewSearchHandler(students StudentDirectory, reports Reports) *SearchHandler {
	return &SearchHandler{students: students, reports: reports}
}

func (h *SearchHandler) Register(public, _ gin.IRoutes) {
	public.GET("/search/students", h.Students)
	public.GET("/search/student/:studentId/attendance", h.Attendance)
}

// GET /api/search/students?query=
func (h *SearchHandler) Students(c *gin.Context) {
	out, err := h.students.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/search/student/:studentId/attendance
func (h *SearchHandler) Attendance(c *gin.Context) {
	id, ok := idParam(c, "studentId")
	if !ok {
		return
	}
	st, err := h.students.ByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	rep, err := h.reports.Report(c.Request.Context(), st)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
