package auth

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"attendanceio/internal/apperr"
	"attendanceio/internal/student"
)

// SessionCookie carries the access token for browser clients.
const SessionCookie = "attendanceio_session"

const studentKey = "student"

// StudentLookup resolves the authenticated email to a student.
type StudentLookup interface {
	ByEmail(ctx context.Context, email string) (student.Student, error)
}

// StudentAuth accepts a bearer token or the session cookie and loads the student.
func StudentAuth(tokens *Tokens, students StudentLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearer(c.GetHeader("Authorization"))
		if tokenStr == "" {
			tokenStr, _ = c.Cookie(SessionCookie)
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		claims, err := tokens.ParseAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		st, err := students.ByEmail(c.Request.Context(), claims.Email)
		if err != nil {
			if apperr.KindOf(err) != apperr.KindNotFound {
				log.Printf("auth: load student %s: %v", claims.Email, err)
			}
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
			return
		}
		c.Set(studentKey, st)
		c.Next()
	}
}

// CurrentStudent returns the student set by StudentAuth.
func CurrentStudent(c *gin.Context) (student.Student, bool) {
	v, ok := c.Get(studentKey)
	if !ok {
		return student.Student{}, false
	}
	st, ok := v.(student.Student)
	return st, ok
}

func bearer(authz string) string {
	if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[len("bearer "):])
}
