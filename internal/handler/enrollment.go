package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"attendanceio/internal/attendance"
	"attendanceio/internal/enrollment"
)

// StatusEnrolledWithConflicts is returned when enrollment succeeded but some
// timetable slots could not be placed.
const StatusEnrolledWithConflicts = 209

// Enrollments is the enrollment service as seen by the handler.
type Enrollments interface {
	Enrolled(ctx context.Context, studentID int64) ([]enrollment.EnrolledSubject, error)
	Save(ctx context.Context, studentID int64, req enrollment.SaveRequest) (enrollment.SaveResult, error)
	Preview(ctx context.Context, studentID int64, req enrollment.SaveRequest) (enrollment.Preview, error)
	UpdateMinimumCriteria(ctx context.Context, studentID int64, req enrollment.CriteriaRequest) error
}

// Baselines stores institute-supplied attendance baselines.
type Baselines interface {
	SaveBaseline(ctx context.Context, studentID int64, req attendance.BaselineRequest) (attendance.Baseline, error)
}

type EnrollmentHandler struct {
	enrollments Enrollments
	baselines   Baselines
}

func NewEnrollmentHandler(enrollments Enrollments, baselines Baselines) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, baselines: baselines}
}

func (h *EnrollmentHandler) Register(_, private gin.IRoutes) {
	private.GET("/student/enrollment/subjects", h.List)
	private.POST("/student/enrollment/subjects", h.Save)
	private.POST("/student/enrollment/conflicts", h.Conflicts)
	private.PUT("/student/enrollment/minimum-criteria", h.MinimumCriteria)
	private.POST("/student/enrollment/baseline", h.Baseline)
}

// GET /api/student/enrollment/subjects
func (h *EnrollmentHandler) List(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	subjects, err := h.enrollments.Enrolled(c.Request.Context(), st.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}

// POST /api/student/enrollment/subjects
func (h *EnrollmentHandler) Save(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	var req enrollment.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	res, err := h.enrollments.Save(c.Request.Context(), st.ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if res.HasConflicts {
		status = StatusEnrolledWithConflicts
	}
	c.JSON(status, res)
}

// POST /api/student/enrollment/conflicts
func (h *EnrollmentHandler) Conflicts(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	var req enrollment.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	preview, err := h.enrollments.Preview(c.Request.Context(), st.ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// PUT /api/student/enrollment/minimum-criteria
func (h *EnrollmentHandler) MinimumCriteria(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	var req enrollment.CriteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.enrollments.UpdateMinimumCriteria(c.Request.Context(), st.ID, req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Minimum criteria updated successfully"})
}

// POST /api/student/enrollment/baseline
func (h *EnrollmentHandler) Baseline(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	var req attendance.BaselineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "subjectId and cutoffDate are required")
		return
	}
	b, err := h.baselines.SaveBaseline(c.Request.Context(), st.ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Baseline attendance saved successfully",
		"subjectId":      strconv.FormatInt(b.SubjectID, 10),
		"cutoffDate":     b.CutoffDate.Format(time.DateOnly),
		"totalClasses":   b.TotalClasses,
		"presentClasses": b.PresentClasses,
	})
}
