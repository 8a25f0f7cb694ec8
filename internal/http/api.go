package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bookshelf/internal/domain"
	"bookshelf/internal/service"
	"bookshelf/internal/storage"
)

const (
	loginPage = "/login.html"
	homePage  = "/"
	adminPage = "/admin.html"
)

// Options configures the HTTP surface.
type Options struct {
	SessionName    string
	SessionStore   sessions.Store
	StaticDir      string
	MaxUploadBytes int64
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	books     service.BookService
	analytics service.AnalyticsService
	media     storage.Service
	logger    *logrus.Logger
	opts      Options
}

// NewHandler builds a Handler, filling in defaults for unset options.
func NewHandler(
	users service.UserService,
	books service.BookService,
	analytics service.AnalyticsService,
	media storage.Service,
	logger *logrus.Logger,
	opts Options,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.SessionName == "" {
		opts.SessionName = "bookshelf_session"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 64 << 20
	}
	return &Handler{
		users:     users,
		books:     books,
		analytics: analytics,
		media:     media,
		logger:    logger,
		opts:      opts,
	}
}

// RegisterRoutes mounts the session middleware, the API and the static front end.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	router.Use(sessions.Sessions(h.opts.SessionName, h.opts.SessionStore))

	router.POST("/signup", h.signup)
	router.POST("/login", h.login)
	router.GET("/logout", h.logout)
	router.GET("/profiles/:name", h.servePicture)

	member := router.Group("/", h.requireLogin())
	{
		member.GET("/api/profile", h.profile)
		member.GET("/api/books", h.listBooks)
		member.GET("/download/:filename", h.downloadBook)
		member.GET("/covers/:name", h.serveCover)
		member.POST("/ad-view", h.recordAdView)
	}

	router.POST("/upload", h.requireAdmin(), h.uploadBook)

	admin := router.Group("/admin", h.requireAdmin())
	{
		admin.GET("/users", h.listUsers)
		admin.POST("/delete-user", h.deleteUser)
		admin.GET("/monetization", h.listAdViews)
		admin.GET("/monetization/csv", h.exportAdViews)
	}

	router.GET("/api/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	if h.opts.StaticDir != "" {
		router.NoRoute(staticFiles(h.opts.StaticDir))
	}
}

// staticFiles serves the front-end pages (login.html, admin.html, ...).
func staticFiles(dir string) gin.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}

// ProfileResponse is the signed-in user's own profile.
type ProfileResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Picture  string `json:"picture"`
}

// BookResponse is one catalog entry.
type BookResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Filename string `json:"filename"`
	Cover    string `json:"cover"`
}

// UserSummaryResponse is a user as listed to admins, logins in RFC 3339.
type UserSummaryResponse struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Picture  string   `json:"picture"`
	Logins   []string `json:"logins"`
}

// AdViewResponse is one recorded ad impression.
type AdViewResponse struct {
	Username  string `json:"username"`
	Book      string `json:"book"`
	Timestamp string `json:"timestamp"`
}

func bookToResponse(book domain.Book) BookResponse {
	return BookResponse{
		ID:       book.ID,
		Title:    book.Title,
		Author:   book.Author,
		Filename: book.Filename,
		Cover:    book.Cover,
	}
}

func userToSummary(user domain.User) UserSummaryResponse {
	resp := UserSummaryResponse{
		Username: user.Username,
		Email:    user.Email,
		Picture:  user.Picture,
		Logins:   make([]string, len(user.Logins)),
	}
	for i, at := range user.Logins {
		resp.Logins[i] = service.FormatTimestamp(at)
	}
	return resp
}

func adViewToResponse(view domain.AdView) AdViewResponse {
	return AdViewResponse{
		Username:  view.Username,
		Book:      view.Book,
		Timestamp: service.FormatTimestamp(view.Timestamp),
	}
}
