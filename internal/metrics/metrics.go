package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// AttendanceMarks counts marked lectures by status.
	AttendanceMarks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendanceio",
		Name:      "attendance_marks_total",
		Help:      "Attendance records upserted by students.",
	}, []string{"status"})

	// EnrollmentConflicts counts timetable slot collisions found while enrolling.
	EnrollmentConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "attendanceio",
		Name:      "enrollment_conflicts_total",
		Help:      "Timetable conflicts reported during enrollment sync.",
	})

	// SleepReminders counts reminder outcomes: queued, sent, failed.
	SleepReminders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendanceio",
		Name:      "sleep_reminders_total",
		Help:      "Sleep reminders by result.",
	}, []string{"result"})

	// HTTPDuration observes request latency by route.
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "attendanceio",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(AttendanceMarks, EnrollmentConflicts, SleepReminders, HTTPDuration)
}

// GinMiddleware records request latency using the matched route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
