package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendanceio/internal/academic"
	"attendanceio/internal/analytics"
	"attendanceio/internal/attendance"
	"attendanceio/internal/auth"
	"attendanceio/internal/community"
	"attendanceio/internal/config"
	"attendanceio/internal/enrollment"
	"attendanceio/internal/handler"
	"attendanceio/internal/httpmiddleware"
	"attendanceio/internal/metrics"
	"attendanceio/internal/store"
	"attendanceio/internal/student"
	"attendanceio/internal/timetable"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		if db == nil {
			return err
		}
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() { _ = db.Close() }()

	if cfg.AutoMigrate {
		if err := store.Migrate(context.Background(), db.Client); err != nil {
			return err
		}
		log.Println("schema migrated")
	}

	var redisClient *store.Redis
	codes := auth.CodeStore(auth.NewMemoryCodes(auth.CodeTTL))
	if cfg.CodeStoreBackend == "redis" {
		redisClient, err = store.NewRedis(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		codes = auth.NewRedisCodes(redisClient.Client, auth.CodeTTL)
	}

	catalog := academic.NewRepository(db.Client)
	students := student.NewService(student.NewRepository(db.Client), cfg.AllowedEmailDomain)

	classesStart, hasStart := cfg.ClassesStart()
	classesEnd, _ := cfg.ClassesEnd()
	att := attendance.NewService(attendance.NewRepository(db.Client), catalog, attendance.Options{
		ClassesStart:           classesStart,
		ClassesEnd:             classesEnd,
		DefaultMinimumCriteria: cfg.DefaultMinimumCriteria,
	})

	timetables := timetable.NewService(timetable.NewRepository(db.Client), timetable.NewTxRunner(db.Client), catalog)
	enrollments := enrollment.NewService(
		enrollment.NewRepository(db.Client),
		timetable.NewRepository(db.Client),
		enrollment.NewTxRunner(db.Client),
		catalog,
		enrollment.Options{MaxSubjects: cfg.MaxSubjects, DefaultMinimumCriteria: cfg.DefaultMinimumCriteria},
	)
	reports := analytics.NewService(analytics.NewRepository(db.Client), catalog)
	feedback := community.NewService(community.NewRepository(db.Client))

	tokens := auth.NewTokens(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
	google := auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{strings.TrimRight(cfg.FrontendURL, "/")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(metrics.GinMiddleware())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin, nil).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db.Healthy(c.Request.Context())
		redisHealthy := redisClient == nil || redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	perStudent := httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin, studentOrIP)
	handler.Register(r,
		gin.HandlersChain{auth.StudentAuth(tokens, students), perStudent.GinMiddleware()},
		handler.NewAuthHandler(google, students, codes, tokens, handler.AuthOptions{
			FrontendURL:   cfg.FrontendURL,
			MobileScheme:  cfg.MobileRedirectScheme,
			MobileHost:    cfg.MobileRedirectHost,
			SecureCookies: cfg.Production(),
		}),
		handler.NewUserHandler(students, cfg.Production()),
		handler.NewReferenceHandler(catalog, classesStart, hasStart),
		handler.NewEnrollmentHandler(enrollments, att),
		handler.NewAttendanceHandler(att),
		handler.NewTimetableHandler(timetables),
		handler.NewAnalyticsHandler(reports),
		handler.NewSearchHandler(students, att),
		handler.NewCommunityHandler(feedback),
	)

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// studentOrIP charges authenticated traffic to the student.
func studentOrIP(c *gin.Context) string {
	if st, ok := auth.CurrentStudent(c); ok {
		return "student:" + strconv.FormatInt(st.ID, 10)
	}
	return httpmiddleware.ClientIP(c)
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
