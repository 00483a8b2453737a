package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/larkbridge/larkbridge/internal/storage"
)

// ObjectsHandler serves stored media binaries behind signed, expiring URLs.
type ObjectsHandler struct {
	store  storage.Store
	signer *storage.Signer
	logger *slog.Logger
}

func NewObjectsHandler(log *slog.Logger, store storage.Store, signer *storage.Signer) *ObjectsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ObjectsHandler{
		store:  store,
		signer: signer,
		logger: log.With(slog.String("handler", "objects")),
	}
}

func (h *ObjectsHandler) Register(e *echo.Echo) {
	e.GET("/objects/*", h.Get)
}

func (h *ObjectsHandler) Get(c echo.Context) error {
	key := c.Param("*")
	expires, err := strconv.ParseInt(c.QueryParam("expires"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "invalid signature"})
	}
	if err := h.signer.Verify(key, expires, c.QueryParam("sig"), time.Now()); err != nil {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "invalid signature"})
	}

	reader, err := h.store.Open(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "object not found"})
		}
		h.logger.Error("object open failed", slog.String("key", key), slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "open object"})
	}
	defer reader.Close()

	return c.Stream(http.StatusOK, "application/octet-stream", reader)
}
