package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	imagepkg "github.com/lpcrm/reminder-poster/internal/image"
	"github.com/lpcrm/reminder-poster/internal/poster"
	"github.com/lpcrm/reminder-poster/internal/service"
	"github.com/lpcrm/reminder-poster/internal/session"
)

const (
	storeKey     = "poster_store"
	sessionIDKey = "session_id"

	// qrWait bounds how long qr.png waits for an encode that is still running.
	qrWait = 2 * time.Second
)

type Handler struct {
	sessions *session.Manager
	posters  *service.Poster
	logger   *slog.Logger
}

func NewHandler(sessions *session.Manager, posters *service.Poster, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	registerValidators()
	return &Handler{sessions: sessions, posters: posters, logger: logger}
}

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (h *Handler) options(c *gin.Context) {
	genders := make([]string, 0, 2)
	for _, g := range poster.Genders() {
		genders = append(genders, g.String())
	}
	ages := make([]string, 0, 3)
	for _, a := range poster.AgeRanges() {
		ages = append(ages, a.String())
	}
	c.JSON(http.StatusOK, gin.H{
		"weekdays":           poster.Weekdays,
		"genders":            genders,
		"age_ranges":         ages,
		"default_time":       poster.DefaultTime,
		"default_gender":     poster.Boy.String(),
		"default_age_range":  poster.Child.String(),
		"max_schedule_cards": imagepkg.MaxScheduleCards,
		"preview":            h.posters.Viewport(),
	})
}

// qr endpoint returns a PNG of a QR for "text" query param
func qrHandler(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	size := 400
	if sizeStr := c.Query("size"); sizeStr != "" {
		if v, err := strconv.Atoi(sizeStr); err == nil && v >= 64 && v <= 1024 {
			size = v
		}
	}
	b, err := imagepkg.GenerateQRPNG(text, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

// loadSession resolves :id and stores the poster store on the context.
func (h *Handler) loadSession(c *gin.Context) {
	id := c.Param("id")
	store, err := h.sessions.Get(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(sessionIDKey, id)
	c.Set(storeKey, store)
	c.Next()
}

func storeFrom(c *gin.Context) *poster.Store {
	return c.MustGet(storeKey).(*poster.Store)
}

func (h *Handler) createSession(c *gin.Context) {
	id, store := h.sessions.Create()
	c.JSON(http.StatusCreated, newSessionView(id, store.Snapshot()))
}

func (h *Handler) getSession(c *gin.Context) {
	h.respondView(c)
}

func (h *Handler) respondView(c *gin.Context) {
	c.JSON(http.StatusOK, newSessionView(c.GetString(sessionIDKey), storeFrom(c).Snapshot()))
}

func (h *Handler) updateSession(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	store := storeFrom(c)
	if req.StudentName != nil {
		store.SetStudentName(*req.StudentName)
	}
	if req.Gender != nil {
		if err := store.SetGender(*req.Gender); err != nil {
			h.fail(c, err)
			return
		}
	}
	if req.AgeRange != nil {
		if err := store.SetAgeRange(*req.AgeRange); err != nil {
			h.fail(c, err)
			return
		}
	}
	if req.ClassLink != nil {
		store.SetClassLink(*req.ClassLink)
	}
	h.respondView(c)
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.GetString(sessionIDKey)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) toggleDay(c *gin.Context) {
	if _, err := storeFrom(c).ToggleDay(c.Param("day")); err != nil {
		h.fail(c, err)
		return
	}
	h.respondView(c)
}

func (h *Handler) setTime(c *gin.Context) {
	var req timeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := storeFrom(c).SetTime(c.Param("day"), req.Time); err != nil {
		h.fail(c, err)
		return
	}
	h.respondView(c)
}

func (h *Handler) sessionQR(c *gin.Context) {
	store := storeFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), qrWait)
	defer cancel()
	_ = store.AwaitQR(ctx)

	qr := store.Snapshot().QR
	if qr == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no QR code yet"})
		return
	}
	c.Data(http.StatusOK, "image/png", qr.PNG)
}

func (h *Handler) generate(c *gin.Context) {
	if err := h.posters.Generate(c.Request.Context(), storeFrom(c)); err != nil {
		h.fail(c, err)
		return
	}
	h.respondView(c)
}

func (h *Handler) preview(c *gin.Context) {
	var q viewportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	b, err := h.posters.Preview(storeFrom(c), q.viewport())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", b)
}

func (h *Handler) export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, err)
		return
	}
	exp, err := h.posters.Export(c.Request.Context(), storeFrom(c), req.viewport())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.Filename}))
	c.Header("X-Poster-Size", strconv.Itoa(exp.Width)+"x"+strconv.Itoa(exp.Height))
	c.Data(http.StatusOK, "image/png", exp.PNG)
}
