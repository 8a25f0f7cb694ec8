package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionUsernameKey = "username"
	sessionPictureKey  = "picture"

	ctxUsernameKey = "username"
)

// currentUser returns the username bound to the request's session, if any.
func currentUser(c *gin.Context) (string, bool) {
	username, ok := sessions.Default(c).Get(sessionUsernameKey).(string)
	if !ok || username == "" {
		return "", false
	}
	return username, true
}

// username returns the identity a gate placed on the context.
func username(c *gin.Context) string {
	return c.GetString(ctxUsernameKey)
}

func (h *Handler) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := currentUser(c)
		if !ok {
			c.Redirect(http.StatusFound, loginPage)
			c.Abort()
			return
		}
		c.Set(ctxUsernameKey, username)
		c.Next()
	}
}

// requireAdmin checks the admin role against the identity store on every
// request, so demoted or deleted users lose access immediately.
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := currentUser(c)
		if !ok {
			c.String(http.StatusForbidden, "Forbidden")
			c.Abort()
			return
		}

		isAdmin, err := h.users.IsAdmin(c.Request.Context(), username)
		if err != nil {
			h.logger.WithError(err).WithField("username", username).Error("admin check failed")
			c.String(http.StatusInternalServerError, "Internal error")
			c.Abort()
			return
		}
		if !isAdmin {
			h.logger.WithField("username", username).Warnf("forbidden %s %s", c.Request.Method, c.Request.URL.Path)
			c.String(http.StatusForbidden, "Forbidden")
			c.Abort()
			return
		}

		c.Set(ctxUsernameKey, username)
		c.Next()
	}
}

func startSession(c *gin.Context, username, picture string) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUsernameKey, username)
	session.Set(sessionPictureKey, picture)
	return session.Save()
}

func endSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}
