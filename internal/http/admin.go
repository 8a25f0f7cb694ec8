package http

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/storage"
)

type adViewRequest struct {
	Book string `json:"book" form:"book"`
}

func (h *Handler) recordAdView(c *gin.Context) {
	var req adViewRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Debug("ad view body")
	}

	if _, err := h.analytics.RecordView(c.Request.Context(), username(c), req.Book); err != nil {
		h.logger.WithError(err).Error("record ad view")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}

	resp := make([]UserSummaryResponse, len(users))
	for i := range users {
		resp[i] = userToSummary(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deleteUser(c *gin.Context) {
	target := c.PostForm("username")

	deleted, err := h.users.DeleteUser(c.Request.Context(), target)
	if err != nil {
		h.logger.WithError(err).WithField("username", target).Error("delete user")
		c.Status(http.StatusInternalServerError)
		return
	}

	if deleted != nil {
		h.removeStored(c, storage.ClassProfiles, deleted.Picture)
		h.logger.WithField("username", target).WithField("admin", username(c)).Info("user deleted")
	}
	c.Status(http.StatusOK)
}

func (h *Handler) listAdViews(c *gin.Context) {
	views, err := h.analytics.ListViews(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("list ad views")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list ad views"})
		return
	}

	resp := make([]AdViewResponse, len(views))
	for i := range views {
		resp[i] = adViewToResponse(views[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) exportAdViews(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.analytics.ExportCSV(c.Request.Context(), &buf); err != nil {
		h.logger.WithError(err).Error("export ad views")
		c.String(http.StatusInternalServerError, "Internal error")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="ad_views.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
