package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"attendanceio/internal/academic"
	"attendanceio/internal/apperr"
)

// ReferenceCatalog is the read-only academic data.
type ReferenceCatalog interface {
	CurrentSemester(ctx context.Context) (academic.Semester, error)
	SubjectsBySemester(ctx context.Context, semesterID int64) ([]academic.Subject, error)
	SchedulesForSubjects(ctx context.Context, subjectIDs []int64) ([]academic.ScheduleSlot, error)
}

type ReferenceHandler struct {
	catalog      ReferenceCatalog
	classesStart time.Time
	hasStart     bool
}

// NewReferenceHandler takes the configured classes start date; ok false means unset.
func NewReferenceHandler(catalog ReferenceCatalog, classesStart time.Time, ok bool) *ReferenceHandler {
	return &ReferenceHandler{catalog: catalog, classesStart: classesStart, hasStart: ok}
}

func (h *ReferenceHandler) Register(public, private gin.IRoutes) {
	public.GET("/semester/current", h.CurrentSemester)
	public.GET("/subjects/current", h.CurrentSubjects)
	private.GET("/config/classes-start-date", h.ClassesStartDate)
	private.GET("/subjects/schedules", h.Schedules)
}

// GET /api/config/classes-start-date
func (h *ReferenceHandler) ClassesStartDate(c *gin.Context) {
	if !h.hasStart {
		c.JSON(http.StatusNotFound, gin.H{"error": "Start date not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"startDate": h.classesStart.Format(time.DateOnly)})
}

// GET /api/semester/current
func (h *ReferenceHandler) CurrentSemester(c *gin.Context) {
	sem, err := h.catalog.CurrentSemester(c.Request.Context())
	if apperr.KindOf(err) == apperr.KindNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active semester found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": sem.ID, "year": sem.Year, "type": sem.Type})
}

type subjectView struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	LecturePlace string `json:"lecturePlace,omitempty"`
	Color        string `json:"color,omitempty"`
}

// GET /api/subjects/current
func (h *ReferenceHandler) CurrentSubjects(c *gin.Context) {
	out := []subjectView{}
	sem, err := h.catalog.CurrentSemester(c.Request.Context())
	if apperr.KindOf(err) == apperr.KindNotFound {
		c.JSON(http.StatusOK, out)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	subjects, err := h.catalog.SubjectsBySemester(c.Request.Context(), sem.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	for _, s := range subjects {
		out = append(out, subjectView{
			ID:           strconv.FormatInt(s.ID, 10),
			Code:         s.Code,
			Name:         s.Name,
			LecturePlace: s.LecturePlace,
			Color:        s.Color,
		})
	}
	c.JSON(http.StatusOK, out)
}

type scheduleView struct {
	SubjectID     int64  `json:"subjectId"`
	SubjectCode   string `json:"subjectCode"`
	SubjectName   string `json:"subjectName"`
	DayID         int    `json:"dayId"`
	DayName       string `json:"dayName"`
	SlotID        int    `json:"slotId"`
	SlotStartTime string `json:"slotStartTime"`
	SlotEndTime   string `json:"slotEndTime"`
}

// GET /api/subjects/schedules?subjectIds=1,2
func (h *ReferenceHandler) Schedules(c *gin.Context) {
	var ids []int64
	for _, raw := range c.QueryArray("subjectIds") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				badRequest(c, "invalid subject ID: "+part)
				return
			}
			ids = append(ids, id)
		}
	}
	out := []scheduleView{}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, out)
		return
	}
	slots, err := h.catalog.SchedulesForSubjects(c.Request.Context(), ids)
	if err != nil {
		writeError(c, err)
		return
	}
	for _, s := range slots {
		out = append(out, scheduleView{
			SubjectID:     s.Subject.ID,
			SubjectCode:   s.Subject.Code,
			SubjectName:   s.Subject.Name,
			DayID:         s.Day.ID,
			DayName:       s.Day.Name,
			SlotID:        s.Slot.ID,
			SlotStartTime: s.Slot.Start,
			SlotEndTime:   s.Slot.End,
		})
	}
	c.JSON(http.StatusOK, out)
}
