package notify

import (
	"context"
	"log"

	"attendanceio/internal/metrics"
	"attendanceio/internal/queue"
)

// Deliver drains reminders from the queue until ctx ends or the channel
// closes. Failed sends are logged and counted, never retried.
func Deliver(ctx context.Context, q queue.Queue, p Pusher) error {
	msgs, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range msgs {
		if msg.Type != ReminderType {
			log.Printf("notify: ignoring message type %q", msg.Type)
			continue
		}
		var r Reminder
		if err := msg.Decode(&r); err != nil {
			log.Printf("notify: bad reminder payload: %v", err)
			metrics.SleepReminders.WithLabelValues("failed").Inc()
			continue
		}
		if err := p.Send(ctx, r.Token, r.Title, r.Body, r.Data); err != nil {
			log.Printf("notify: send to student %d failed: %v", r.StudentID, err)
			metrics.SleepReminders.WithLabelValues("failed").Inc()
			continue
		}
		metrics.SleepReminders.WithLabelValues("sent").Inc()
	}
	return ctx.Err()
}
