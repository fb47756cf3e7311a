package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
	"github.com/ikaadil/any-currency-to-bdt/internal/repository"
)

const (
	defaultHistoryLimit = 48
	maxHistoryLimit     = 720
)

// GetRates returns the latest snapshot exactly as rates.json lays it out.
// @Summary      Latest rates snapshot
// @Description  Returns every ranked bucket, shaped exactly like rates.json
// @Tags         rates
// @Produce      json
// @Success      200  {object}  domain.Snapshot
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/rates [get]
func (h *Handler) GetRates(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-rates")
	defer span.End()

	snap, err := h.snapshots.Latest(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetCurrencyRates returns the ranked bucket for one source currency.
// @Summary      Rates for one source currency
// @Description  Returns the ranked providers sending the given currency to BDT
// @Tags         rates
// @Produce      json
// @Param        currency  path  string  true  "Source currency code (e.g., USD, GBP)"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/rates/{currency} [get]
func (h *Handler) GetCurrencyRates(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-currency-rates")
	defer span.End()

	code := strings.ToUpper(c.Param("currency"))
	span.SetAttributes(attribute.String("currency", code))

	currency, ok := domain.LookupCurrency(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":                "unknown currency: " + code,
			"supported_currencies": domain.CurrencyCodes(),
		})
		return
	}

	snap, err := h.snapshots.Latest(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	rates := snap.Rates[code]
	if rates == nil {
		rates = []domain.Rate{}
	}
	c.JSON(http.StatusOK, gin.H{
		"updated_at": snap.UpdatedAt.Format(domain.TimestampLayout),
		"currency":   currency,
		"target":     snap.Target,
		"rates":      rates,
	})
}

// GetBest returns the top record per tracked currency, null where none.
// @Summary      Best rate per currency
// @Description  Returns the top-ranked record for every tracked currency, null where none
// @Tags         rates
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/best [get]
func (h *Handler) GetBest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-best")
	defer span.End()

	snap, err := h.snapshots.Latest(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	best := make(map[string]*domain.Rate, len(domain.Currencies))
	for _, code := range domain.CurrencyCodes() {
		best[code] = snap.Best(code)
	}
	c.JSON(http.StatusOK, gin.H{
		"updated_at": snap.UpdatedAt.Format(domain.TimestampLayout),
		"target":     snap.Target,
		"best":       best,
	})
}

// GetHistory returns the best rate per run for one currency, newest first.
// @Summary      Best-rate history
// @Description  Returns the best rate of each stored run for a currency, newest first
// @Tags         history
// @Produce      json
// @Param        currency  path   string  true   "Source currency code (e.g., USD, GBP)"
// @Param        limit     query  int     false  "Number of runs (default 48, max 720)"  default(48)
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/history/{currency} [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	code := strings.ToUpper(c.Param("currency"))
	if _, ok := domain.LookupCurrency(code); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown currency: " + code})
		return
	}

	limit := defaultHistoryLimit
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxHistoryLimit {
			limit = n
		}
	}
	span.SetAttributes(attribute.String("currency", code), attribute.Int("limit", limit))

	points, err := h.history.BestHistory(ctx, code, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if points == nil {
		points = []repository.HistoryPoint{}
	}
	c.JSON(http.StatusOK, gin.H{"currency": code, "history": points})
}
