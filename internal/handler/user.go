package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceio/internal/auth"
)

// Profiles updates student preferences.
type Profiles interface {
	UpdateFCMToken(ctx context.Context, id int64, token string) error
	UpdateSleepDuration(ctx context.Context, id int64, hours int) error
}

type UserHandler struct {
	profiles      Profiles
	secureCookies bool
}

func NewUserHandler(profiles Profiles, secureCookies bool) *UserHandler {
	return &UserHandler{profiles: profiles, secureCookies: secureCookies}
}

func (h *UserHandler) Register(public, private gin.IRoutes) {
	public.POST("/user/logout", h.Logout)
	private.GET("/user/me", h.Me)
	private.PUT("/user/fcm-token", h.UpdateFCMToken)
	private.PUT("/user/sleep-duration", h.UpdateSleepDuration)
}

// GET /api/user/me
func (h *UserHandler) Me(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	fcm := ""
	if st.FCMToken != nil {
		fcm = *st.FCMToken
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                 st.ID,
		"email":              st.Email,
		"name":               st.Name,
		"pictureUrl":         st.PictureURL,
		"sid":                st.SID,
		"phone":              st.Phone,
		"fcmToken":           fcm,
		"sleepDurationHours": st.SleepDurationHours,
	})
}

// POST /api/user/logout
func (h *UserHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

type fcmRequest struct {
	FCMToken *string `json:"fcmToken"`
}

// PUT /api/user/fcm-token
func (h *UserHandler) UpdateFCMToken(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	var req fcmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	token := ""
	if req.FCMToken != nil {
		token = *req.FCMToken
	}
	if err := h.profiles.UpdateFCMToken(c.Request.Context(), st.ID, token); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated successfully", "fcmToken": token})
}

type sleepRequest struct {
	SleepDurationHours int `json:"sleepDurationHours"`
}

// PUT /api/user/sleep-duration
func (h *UserHandler) UpdateSleepDuration(c *gin.Context) {
	st, ok := currentStudent(c)
	if !ok {
		return
	}
	var req sleepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.profiles.UpdateSleepDuration(c.Request.Context(), st.ID, req.SleepDurationHours); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sleep duration updated successfully", "sleepDurationHours": req.SleepDurationHours})
}
