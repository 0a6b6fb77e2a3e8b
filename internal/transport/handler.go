package transport

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "github.com/anime-shed/image-filter-go/internal/errors"
	"github.com/anime-shed/image-filter-go/internal/filter"
	"github.com/anime-shed/image-filter-go/internal/logger"
	"github.com/anime-shed/image-filter-go/internal/observer"
	"github.com/anime-shed/image-filter-go/internal/storage"

	"github.com/gin-gonic/gin"
)

const (
	usageHint = "try GET /filteredimage?image_url={{}}"

	msgImageURLRequired = "An image URL is required"
	msgInvalidImageURL  = "Provided URL is not valid"
	msgInternalPrefix   = "System internal error: "
)

// URLValidator checks a caller-supplied image URL
type URLValidator interface {
	ValidateImageURL(imageURL string) error
}

// Handler serves filtered images. Every file produced by the filter is reaped
// exactly once, whatever happens while sending it.
type Handler struct {
	filter         filter.ImageFilter
	reaper         storage.Reaper
	validator      URLValidator
	publisher      *observer.EventPublisher
	requestTimeout time.Duration
}

// NewHandler creates the request handler; publisher may be nil and a zero
// requestTimeout disables the per-request deadline.
func NewHandler(imageFilter filter.ImageFilter, reaper storage.Reaper, validator URLValidator, publisher *observer.EventPublisher, requestTimeout time.Duration) *Handler {
	return &Handler{
		filter:         imageFilter,
		reaper:         reaper,
		validator:      validator,
		publisher:      publisher,
		requestTimeout: requestTimeout,
	}
}

// Router returns the gin engine with all routes registered
func (h *Handler) Router() http.Handler {
	r := gin.New()

	r.Use(
		requestID(),
		requestLogger(),
		gin.CustomRecovery(recoverPanic),
	)

	r.GET("/", index)
	r.GET("/health", healthCheck)
	r.GET("/filteredimage", h.filteredImage)
	r.GET("/filteredimage/", h.filteredImage)

	return r
}

// recoverPanic answers a panicking request like any other internal failure
func recoverPanic(c *gin.Context, recovered any) {
	err := apperrors.NewInternalError("request handler panicked", fmt.Errorf("%v", recovered))
	logger.FromContext(c.Request.Context()).WithError(err).Error("Recovered from panic")

	if c.Writer.Written() {
		c.Abort()
		return
	}
	respondInternalError(c, err)
	c.Abort()
}

func index(c *gin.Context) {
	c.String(http.StatusOK, usageHint)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) filteredImage(c *gin.Context) {
	ctx := c.Request.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}
	log := logger.FromContext(ctx)

	// An empty value is present and goes to the validator
	imageURL, ok := c.GetQuery("image_url")
	if !ok {
		c.String(http.StatusBadRequest, msgImageURLRequired)
		return
	}

	if err := h.validator.ValidateImageURL(imageURL); err != nil {
		log.WithError(err).WithField("url", imageURL).Info("Rejected image URL")
		c.String(apperrors.GetStatusCode(err), msgInvalidImageURL)
		return
	}

	path, err := h.filter.FilterImageFromURL(ctx, imageURL)
	if err != nil {
		if path != "" {
			h.reap(ctx, path)
		}
		log.WithError(err).WithField("url", imageURL).Error("Image filtering failed")
		respondInternalError(c, err)
		return
	}

	sendErr := h.sendFile(c, path)
	h.reap(ctx, path)

	if sendErr == nil {
		return
	}
	log.WithError(sendErr).WithField("path", path).Error("Failed to send filtered image")
	if !c.Writer.Written() {
		respondInternalError(c, sendErr)
	}
}

// sendFile streams path as an attachment. Once the status line is written
// the response is committed and errors can only be logged.
func (h *Handler) sendFile(c *gin.Context, path string) error {
	ctx := c.Request.Context()
	start := time.Now()

	err := writeAttachment(c, path)
	if err != nil {
		h.publisher.NotifyObservers(ctx, observer.FilterEvent{
			EventType:      observer.SendFailed,
			Path:           path,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return err
	}

	h.publisher.NotifyObservers(ctx, observer.FilterEvent{
		EventType:      observer.FileSent,
		Path:           path,
		ProcessingTime: time.Since(start),
		Success:        true,
	})
	return nil
}

func writeAttachment(c *gin.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewSendError("failed to open filtered image", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return apperrors.NewSendError("failed to stat filtered image", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Length", strconv.FormatInt(info.Size(), 10))
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": filepath.Base(path),
	}))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, file); err != nil {
		return apperrors.NewSendError("failed to write response", err)
	}
	return nil
}

func (h *Handler) reap(ctx context.Context, path string) {
	// Request cancellation must not prevent cleanup
	ctx = context.WithoutCancel(ctx)
	if err := h.reaper.DeleteLocalFiles(ctx, []string{path}); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("path", path).Warn("Temporary file cleanup failed")
	}
}

func respondInternalError(c *gin.Context, err error) {
	// Drop attachment headers left by a send that failed before committing
	for _, header := range []string{"Content-Type", "Content-Length", "Content-Disposition"} {
		c.Writer.Header().Del(header)
	}
	c.String(http.StatusInternalServerError, "%s", msgInternalPrefix+err.Error())
}
