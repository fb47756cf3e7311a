package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
	"github.com/ikaadil/any-currency-to-bdt/internal/repository"
)

type SnapshotReader interface {
	Latest(ctx context.Context) (*domain.Snapshot, error)
}

type HistoryReader interface {
	BestHistory(ctx context.Context, code string, limit int) ([]repository.HistoryPoint, error)
}

type Handler struct {
	tracer    trace.Tracer
	snapshots SnapshotReader
	history   HistoryReader
}

// New builds the API handlers. history may be nil, which disables the
// history endpoint.
func New(tracer trace.Tracer, snapshots SnapshotReader, history HistoryReader) *Handler {
	return &Handler{
		tracer:    tracer,
		snapshots: snapshots,
		history:   history,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/rates", h.GetRates)
	api.GET("/rates/:currency", h.GetCurrencyRates)
	api.GET("/best", h.GetBest)
	if h.history != nil {
		api.GET("/history/:currency", h.GetHistory)
	}
}
