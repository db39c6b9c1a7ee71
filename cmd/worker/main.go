package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"attendanceio/internal/academic"
	"attendanceio/internal/attendance"
	"attendanceio/internal/config"
	"attendanceio/internal/notify"
	"attendanceio/internal/queue"
	"attendanceio/internal/store"
	"attendanceio/internal/student"
	"attendanceio/internal/timetable"
)

// Worker plans sleep reminders every hour and delivers them as push notifications.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		redisClient, err := store.NewRedis(cfg.RedisAddr)
		if err != nil {
			log.Fatalf("redis config invalid: %v", err)
		}
		defer redisClient.Close()
		q = queue.NewRedisQueue(redisClient.Client, "")
	} else {
		q = queue.NewInMemory(256)
	}

	var pusher notify.Pusher = notify.LogPusher{}
	if cfg.FirebaseCredentialsFile != "" {
		fcm, err := notify.NewFCM(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Printf("WARNING: firebase unavailable, reminders will only be logged: %v", err)
		} else {
			pusher = fcm
			log.Println("firebase messaging configured")
		}
	}

	catalog := academic.NewRepository(db.Client)
	students := student.NewService(student.NewRepository(db.Client), cfg.AllowedEmailDomain)
	classesStart, _ := cfg.ClassesStart()
	classesEnd, _ := cfg.ClassesEnd()
	att := attendance.NewService(attendance.NewRepository(db.Client), catalog, attendance.Options{
		ClassesStart:           classesStart,
		ClassesEnd:             classesEnd,
		DefaultMinimumCriteria: cfg.DefaultMinimumCriteria,
	})
	planner := notify.NewPlanner(catalog, students, timetable.NewRepository(db.Client), att, q,
		notify.PlannerOptions{Concurrency: cfg.ReminderConcurrency})

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.ReminderCron, func() {
		if _, err := planner.Run(ctx); err != nil {
			log.Printf("reminder run failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("invalid REMINDER_CRON %q: %v", cfg.ReminderCron, err)
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	log.Printf("worker started, reminders on %q", cfg.ReminderCron)
	if err := notify.Deliver(ctx, q, pusher); err != nil && ctx.Err() == nil {
		log.Printf("delivery stopped: %v", err)
	}
	log.Println("worker stopped")
}
