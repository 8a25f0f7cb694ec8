package http

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bookshelf/internal/service"
	"bookshelf/internal/storage"
)

// maxFormMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const maxFormMemory = 8 << 20

// parseForm limits the request body and parses urlencoded or multipart
// forms. It writes the error response itself and reports whether to go on.
func (h *Handler) parseForm(c *gin.Context) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		err = c.Request.ParseMultipartForm(maxFormMemory)
	} else {
		err = c.Request.ParseForm()
	}
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.String(http.StatusRequestEntityTooLarge, fmt.Sprintf("Request too large (max %d bytes)", tooLarge.Limit))
		return false
	}
	h.logger.WithError(err).Debug("parse form")
	c.String(http.StatusBadRequest, "Malformed form")
	return false
}

// saveFormFile stores the first file of the given multipart field and
// returns its stored name, or "" when the field is absent.
func (h *Handler) saveFormFile(c *gin.Context, field string, class storage.Class) (string, error) {
	form := c.Request.MultipartForm
	if form == nil || len(form.File[field]) == 0 {
		return "", nil
	}
	header := form.File[field][0]

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open %s upload: %w", field, err)
	}
	defer file.Close()

	name, err := h.media.Save(c.Request.Context(), class, header.Filename, file)
	if err != nil {
		return "", err
	}
	h.logger.WithFields(logrus.Fields{
		"field":  field,
		"class":  class,
		"stored": name,
		"size":   header.Size,
	}).Debug("stored upload")
	return name, nil
}

// removeStored cleans up files written by a request that failed later on.
func (h *Handler) removeStored(c *gin.Context, class storage.Class, names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := h.media.Delete(c.Request.Context(), class, name); err != nil {
			h.logger.WithError(err).WithField("stored", name).Warn("remove stored file")
		}
	}
}

func (h *Handler) uploadBook(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	bookFile, err := h.saveFormFile(c, "book", storage.ClassUploads)
	if err != nil {
		h.logger.WithError(err).Error("save book file")
		c.String(http.StatusInternalServerError, "Could not store book")
		return
	}
	cover, err := h.saveFormFile(c, "cover", storage.ClassUploads)
	if err != nil {
		h.removeStored(c, storage.ClassUploads, bookFile)
		h.logger.WithError(err).Error("save cover file")
		c.String(http.StatusInternalServerError, "Could not store cover")
		return
	}

	book, err := h.books.AddBook(c.Request.Context(), c.PostForm("title"), c.PostForm("author"), bookFile, cover)
	if err != nil {
		h.removeStored(c, storage.ClassUploads, bookFile, cover)
		h.logger.WithError(err).Error("add book")
		c.String(http.StatusInternalServerError, "Could not add book")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"book_id": book.ID,
		"title":   book.Title,
		"admin":   username(c),
	}).Info("book uploaded")
	c.Redirect(http.StatusFound, adminPage)
}

func (h *Handler) listBooks(c *gin.Context) {
	books, err := h.books.ListBooks(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("list books")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list books"})
		return
	}

	resp := make([]BookResponse, len(books))
	for i := range books {
		resp[i] = bookToResponse(books[i])
	}
	c.JSON(http.StatusOK, resp)
}

// downloadBook only serves names the catalog knows about.
func (h *Handler) downloadBook(c *gin.Context) {
	name := c.Param("filename")
	if _, err := h.books.ResolveBookFile(c.Request.Context(), name); err != nil {
		h.notFoundOrError(c, err, "resolve book file")
		return
	}
	h.streamStored(c, storage.ClassUploads, name, "attachment")
}

func (h *Handler) serveCover(c *gin.Context) {
	name := c.Param("name")
	if _, err := h.books.ResolveCover(c.Request.Context(), name); err != nil {
		h.notFoundOrError(c, err, "resolve cover")
		return
	}
	h.streamStored(c, storage.ClassUploads, name, "inline")
}

func (h *Handler) servePicture(c *gin.Context) {
	h.streamStored(c, storage.ClassProfiles, c.Param("name"), "inline")
}

func (h *Handler) streamStored(c *gin.Context, class storage.Class, name, disposition string) {
	obj, err := h.media.Open(c.Request.Context(), class, name)
	if err != nil {
		h.notFoundOrError(c, err, "open stored file")
		return
	}
	defer obj.Body.Close()

	headers := map[string]string{
		"Content-Disposition": mime.FormatMediaType(disposition, map[string]string{"filename": obj.Name}),
	}
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, headers)
}

func (h *Handler) notFoundOrError(c *gin.Context, err error, msg string) {
	if errors.Is(err, service.ErrBookNotFound) || errors.Is(err, storage.ErrNotFound) {
		c.String(http.StatusNotFound, "Not found")
		return
	}
	h.logger.WithError(err).Error(msg)
	c.String(http.StatusInternalServerError, "Internal error")
}
