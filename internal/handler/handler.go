// Package handler exposes the services over HTTP.
package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendanceio/internal/apperr"
	"attendanceio/internal/auth"
	"attendanceio/internal/student"
)

// Routes is implemented by every handler group. Public routes need no
// session; private routes run behind the student middleware.
type Routes interface {
	Register(public, private gin.IRoutes)
}

// Register mounts the groups under /api. The private chain must start with
// the student middleware.
func Register(r gin.IRouter, private gin.HandlersChain, groups ...Routes) {
	api := r.Group("/api")
	priv := api.Group("", private...)
	for _, g := range groups {
		g.Register(api, priv)
	}
}

// writeError maps a service error to its status and a safe message.
func writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// currentStudent aborts with 401 when the middleware did not run.
func currentStudent(c *gin.Context) (student.Student, bool) {
	st, ok := auth.CurrentStudent(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	}
	return st, ok
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
