package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/service"
	"bookshelf/internal/storage"
)

func (h *Handler) signup(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	ctx := c.Request.Context()
	picture, err := h.saveFormFile(c, "picture", storage.ClassProfiles)
	if err != nil {
		h.logger.WithError(err).Error("save profile picture")
		c.String(http.StatusInternalServerError, "Could not store picture")
		return
	}

	user, err := h.users.Register(ctx, service.SignupInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
		Picture:  picture,
	})
	if err != nil {
		h.removeStored(c, storage.ClassProfiles, picture)
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.String(http.StatusConflict, "User exists")
		case errors.Is(err, service.ErrInvalidInput):
			c.String(http.StatusBadRequest, err.Error())
		default:
			h.logger.WithError(err).Error("register user")
			c.String(http.StatusInternalServerError, "Internal error")
		}
		return
	}

	h.logger.WithField("username", user.Username).Info("user registered")
	c.Redirect(http.StatusFound, loginPage)
}

func (h *Handler) login(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.String(http.StatusNotFound, "No user")
		case errors.Is(err, service.ErrInvalidCredentials):
			h.logger.WithField("username", c.PostForm("username")).Info("failed login")
			c.String(http.StatusUnauthorized, "Wrong password")
		default:
			h.logger.WithError(err).Error("authenticate user")
			c.String(http.StatusInternalServerError, "Internal error")
		}
		return
	}

	if err := startSession(c, user.Username, user.Picture); err != nil {
		h.logger.WithError(err).WithField("username", user.Username).Error("save session")
		c.String(http.StatusInternalServerError, "Could not save session")
		return
	}

	h.logger.WithField("username", user.Username).Info("user logged in")
	c.Redirect(http.StatusFound, homePage)
}

func (h *Handler) logout(c *gin.Context) {
	if err := endSession(c); err != nil {
		h.logger.WithError(err).Warn("clear session")
	}
	c.Redirect(http.StatusFound, loginPage)
}

func (h *Handler) profile(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), username(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		h.logger.WithError(err).Error("load profile")
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		Username: user.Username,
		Email:    user.Email,
		Picture:  user.Picture,
	})
}
