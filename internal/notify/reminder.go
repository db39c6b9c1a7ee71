package notify

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"attendanceio/internal/academic"
	"attendanceio/internal/apperr"
	"attendanceio/internal/attendance"
	"attendanceio/internal/metrics"
	"attendanceio/internal/queue"
	"attendanceio/internal/student"
	"attendanceio/internal/timetable"
)

// ReminderType is the queue message type for sleep reminders.
const ReminderType = "sleep_reminder"

const defaultSleepHours = 8

// Reminder is the queued payload handed to the push consumer.
type Reminder struct {
	StudentID int64             `json:"studentId"`
	Token     string            `json:"token"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data"`
}

type Semesters interface {
	CurrentSemester(ctx context.Context) (academic.Semester, error)
}

type Recipients interface {
	WithFCMToken(ctx context.Context) ([]student.Student, error)
}

type Timetables interface {
	Entries(ctx context.Context, studentID, semesterID int64) ([]timetable.Entry, error)
}

type Standings interface {
	Standing(ctx context.Context, studentID, subjectID int64) (attendance.Standing, error)
}

// PlannerOptions tune a reminder run.
type PlannerOptions struct {
	Concurrency int
	Now         func() time.Time
}

// Planner finds students whose sleep time for tomorrow's first lecture falls
// in the current hour and queues a reminder for each.
type Planner struct {
	semesters  Semesters
	recipients Recipients
	timetables Timetables
	standings  Standings
	queue      queue.Queue
	opts       PlannerOptions
}

func NewPlanner(sem Semesters, rec Recipients, tt Timetables, st Standings, q queue.Queue, opts PlannerOptions) *Planner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Planner{semesters: sem, recipients: rec, timetables: tt, standings: st, queue: q, opts: opts}
}

// Run performs one scan and returns the number of reminders queued.
func (p *Planner) Run(ctx context.Context) (int, error) {
	now := p.opts.Now()
	sem, err := p.semesters.CurrentSemester(ctx)
	if apperr.KindOf(err) == apperr.KindNotFound {
		log.Printf("reminders: no active semester, skipping")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("current semester: %w", err)
	}

	tomorrow := now.AddDate(0, 0, 1)
	if wd := tomorrow.Weekday(); wd == time.Saturday || wd == time.Sunday {
		log.Printf("reminders: tomorrow is %s, skipping", wd)
		return 0, nil
	}

	students, err := p.recipients.WithFCMToken(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recipients: %w", err)
	}

	var queued atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for _, st := range students {
		st := st
		g.Go(func() error {
			ok, err := p.planOne(gctx, st, sem.ID, now, tomorrow)
			if err != nil {
				log.Printf("reminders: student %d: %v", st.ID, err)
				return nil
			}
			if ok {
				queued.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	log.Printf("reminders: queued %d of %d candidates at %s", queued.Load(), len(students), now.Format(time.RFC3339))
	return int(queued.Load()), nil
}

func (p *Planner) planOne(ctx context.Context, st student.Student, semesterID int64, now, tomorrow time.Time) (bool, error) {
	if st.FCMToken == nil || *st.FCMToken == "" {
		return false, nil
	}
	entries, err := p.timetables.Entries(ctx, st.ID, semesterID)
	if err != nil {
		return false, err
	}
	first, start, ok := firstLecture(entries, tomorrow)
	if !ok {
		return false, nil
	}

	hours := st.SleepDurationHours
	if hours <= 0 {
		hours = defaultSleepHours
	}
	sleepAt := start.Add(-time.Duration(hours) * time.Hour)
	if !sameHour(sleepAt, now) {
		return false, nil
	}

	critical := false
	standing, err := p.standings.Standing(ctx, st.ID, first.Subject.ID)
	switch {
	case err == nil:
		critical = standing.Critical()
	case apperr.KindOf(err) != apperr.KindNotFound:
		return false, err
	}

	msg, err := queue.Encode(ReminderType, buildReminder(st, first.Subject.Name, start, sleepAt, critical))
	if err != nil {
		return false, err
	}
	if err := p.queue.Publish(ctx, msg); err != nil {
		return false, fmt.Errorf("publish: %w", err)
	}
	metrics.SleepReminders.WithLabelValues("queued").Inc()
	return true, nil
}

// firstLecture picks the earliest slot on the given date's weekday.
func firstLecture(entries []timetable.Entry, date time.Time) (timetable.Entry, time.Time, bool) {
	var (
		best  timetable.Entry
		start time.Time
		found bool
	)
	for _, e := range entries {
		if e.Day.Weekday() != date.Weekday() {
			continue
		}
		at, err := e.Slot.StartOn(date)
		if err != nil {
			log.Printf("reminders: slot %d has bad start %q", e.Slot.ID, e.Slot.Start)
			continue
		}
		if !found || at.Before(start) {
			best, start, found = e, at, true
		}
	}
	return best, start, found
}

// sameHour compares wall-clock date and hour in a's zone.
func sameHour(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd && a.Hour() == b.Hour()
}

func buildReminder(st student.Student, subject string, lecture, sleepAt time.Time, critical bool) Reminder {
	if subject == "" {
		subject = "lecture"
	}
	const clock = "03:04 PM"
	r := Reminder{
		StudentID: st.ID,
		Token:     *st.FCMToken,
		Data: map[string]string{
			"type":        ReminderType,
			"lectureTime": lecture.Format("15:04"),
			"sleepTime":   sleepAt.Format("15:04"),
			"subjectName": subject,
			"isCritical":  strconv.FormatBool(critical),
		},
	}
	if critical {
		r.Title = "⚠️ High Priority: Sleep Reminder"
		r.Body = fmt.Sprintf("You have a critical lecture tomorrow at %s (%s). Your attendance is below minimum. Sleep by %s to be well-rested!",
			lecture.Format(clock), subject, sleepAt.Format(clock))
	} else {
		r.Title = "😴 Time to Sleep!"
		r.Body = fmt.Sprintf("You have a lecture tomorrow at %s (%s). Recommended sleep time: %s",
			lecture.Format(clock), subject, sleepAt.Format(clock))
	}
	return r
}
