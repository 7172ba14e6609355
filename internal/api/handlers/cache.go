package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
)

type CacheHandler struct {
	cache  cache.Cache
	logger *logger.Logger
}

func NewCacheHandler(c cache.Cache, log *logger.Logger) *CacheHandler {
	return &CacheHandler{cache: c, logger: log}
}

// Stats reports the active backend and its counters
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, h.cache.Stats(r.Context()))
}

// Clear removes keys matching ?pattern, or every key
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if !h.cache.Clear(r.Context(), pattern) {
		utils.WriteError(w, errors.ServiceUnavailable("Cache clear failed"))
		return
	}

	h.logger.With("pattern", pattern).Info("Cache cleared")
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Cache cleared", nil)
}
