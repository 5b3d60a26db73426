package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"PullbackLens/internal/calculator"
	"PullbackLens/internal/collector"
	"PullbackLens/internal/model"
	"PullbackLens/internal/recorder"
	"PullbackLens/internal/report"
)

// Handler serves the backtest endpoints.
type Handler struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	// Defaults fills any query parameter the caller omits.
	Defaults collector.Request
	Now      func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(col *collector.Collector, rec recorder.Recorder, defaults collector.Request) *Handler {
	return &Handler{Collector: col, Recorder: rec, Defaults: defaults, Now: time.Now}
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunBacktest handles GET /api/v1/backtest
func (h *Handler) RunBacktest(c *gin.Context) {
	req, err := h.parseRequest(c)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	rep, err := h.Collector.Run(c.Request.Context(), req, h.Now())
	if err != nil {
		switch {
		case errors.Is(err, collector.ErrNoData):
			abortWithError(c, http.StatusNotFound, "NO_DATA", err.Error())
		case errors.Is(err, calculator.ErrNegativeVolume), errors.Is(err, model.ErrUnorderedSeries):
			abortWithError(c, http.StatusUnprocessableEntity, "INVALID_DATA", err.Error())
		default:
			abortWithError(c, http.StatusBadGateway, "DATA_FETCH_ERROR", err.Error())
		}
		return
	}

	if err := h.Recorder.RecordRun(rep); err != nil {
		log.Error().Err(err).Str("symbol", rep.Symbol).Msg("record run")
	}
	c.JSON(http.StatusOK, NewBacktestResponse(rep))
}

// LastRun handles GET /api/v1/backtest/:symbol/last
func (h *Handler) LastRun(c *gin.Context) {
	rep, ok := h.lastReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewBacktestResponse(rep))
}

// LastTableCSV handles GET /api/v1/backtest/:symbol/last/table.csv
func (h *Handler) LastTableCSV(c *gin.Context) {
	rep, ok := h.lastReport(c)
	if !ok {
		return
	}
	writeCSV(c, rep.Symbol+"_pullback.csv", func() error {
		return report.WriteTableCSV(c.Writer, rep.Table)
	})
}

// LastProfileCSV handles GET /api/v1/backtest/:symbol/last/profile.csv
func (h *Handler) LastProfileCSV(c *gin.Context) {
	rep, ok := h.lastReport(c)
	if !ok {
		return
	}
	writeCSV(c, rep.Symbol+"_profile.csv", func() error {
		return report.WriteProfileCSV(c.Writer, rep.Profile)
	})
}

func (h *Handler) lastReport(c *gin.Context) (*model.Report, bool) {
	rep, err := h.Recorder.LastRun(c.Param("symbol"))
	if errors.Is(err, recorder.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "no recorded run for "+c.Param("symbol"))
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Msg("load last run")
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load last run")
		return nil, false
	}
	return rep, true
}

func (h *Handler) parseRequest(c *gin.Context) (collector.Request, error) {
	req := h.Defaults
	if s := c.Query("symbol"); s != "" {
		req.Symbol = s
	}
	if s := c.Query("start"); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			return req, errors.New("start must be YYYY-MM-DD")
		}
		req.Start = d
	}
	if s := c.Query("lookback"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return req, errors.New("lookback must be an integer")
		}
		req.LookbackDays = n
	}
	if s := c.Query("bins"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return req, errors.New("bins must be an integer")
		}
		req.BinCount = n
	}
	if s := c.Query("profile"); s != "" {
		req.ProfileSource = model.ProfileSource(s)
	}
	return req, nil
}

func writeCSV(c *gin.Context, filename string, write func() error) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := write(); err != nil {
		log.Error().Err(err).Str("file", filename).Msg("write csv")
	}
}
