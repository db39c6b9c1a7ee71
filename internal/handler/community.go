package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceio/internal/community"
)

type Community interface {
	SubmitFeedback(ctx context.Context, studentID int64, req community.FeedbackRequest) (int64, error)
	Contributors(ctx context.Context, typ string) ([]community.Contributor, error)
}

type CommunityHandler struct {
	svc Community
}

func NewCommunityHandler(svc Community) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

func (h *CommunityHandler) Register(_, private gin.IRoutes) {
	private.POST("/feedback", h.Feedback)
	private.GET("/contributors", h.Contributors)
}

// POST /api/feedback
func (h *CommunityHandler) Feedback(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	var req community.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	id, err := h.svc.SubmitFeedback(c.Request.Context(), st.ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "Thank you for your feedback!"})
}

// GET /api/contributors?type=idea|tester
func (h *CommunityHandler) Contributors(c *gin.Context) {
	out, err := h.svc.Contributors(c.Request.Context(), c.Query("type"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
