package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"negprice/internal/api/models"
	"negprice/internal/config"
	"negprice/internal/engine"
	"negprice/internal/loader"
	"negprice/internal/model"
	"negprice/internal/store"
)

// AnalyzeHandler runs the engine over a posted aligned table and persists
// the payload for permalink retrieval.
type AnalyzeHandler struct {
	cfg     *config.Config
	results *store.Results
	sink    engine.ArtifactSink
}

func NewAnalyzeHandler(cfg *config.Config, results *store.Results, sink engine.ArtifactSink) *AnalyzeHandler {
	return &AnalyzeHandler{cfg: cfg, results: results, sink: sink}
}

// Analyze handles POST /api/v1/analyze.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Errorf("BAD_REQUEST", err.Error()))
		return
	}

	opts := req.Options(h.cfg.RunOptions())

	rows, err := inputRows(req, opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Errorf("BAD_INPUT", err.Error()))
		return
	}

	payload, err := engine.BuildReport(rows, opts, h.sink)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Errorf("ANALYSIS_FAILED", err.Error()))
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.Errorf("INTERNAL_ERROR", err.Error()))
		return
	}
	id, err := h.results.Save(raw)
	if err != nil {
		// The analysis itself succeeded; losing the permalink is not fatal.
		log.Warn().Err(err).Msg("saving result failed")
	}

	c.JSON(http.StatusOK, models.AnalyzeResponse{
		ResultID: id,
		Analysis: payload,
		Metadata: models.AnalyzeMetadata{
			AnalyzedAt: time.Now().UTC(),
			Rows:       len(rows),
			Timezone:   opts.Timezone,
			Currency:   opts.Currency,
		},
	})
}

func inputRows(req models.AnalyzeRequest, opts model.RunOptions) ([]model.InputHour, error) {
	if req.CSV != "" {
		tz := opts.Timezone
		if tz == "" {
			tz = "Europe/Stockholm"
		}
		return loader.ParseAligned(strings.NewReader(req.CSV), tz)
	}
	rows := make([]model.InputHour, 0, len(req.Rows))
	for _, r := range req.Rows {
		rows = append(rows, model.InputHour{
			Timestamp:      r.Timestamp,
			ProductionKWh:  r.ProductionKWh,
			PriceEURPerMWh: r.PriceEURPerMWh,
		})
	}
	return rows, nil
}
