package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pawanpaudel93/nepse-analysis/internal/reports"
	"github.com/pawanpaudel93/nepse-analysis/pkg/logger"
)

// ReportsHandler serves the floorsheet report endpoints.
type ReportsHandler struct {
	service *reports.Service
	logger  *logger.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(service *reports.Service, log *logger.Logger) *ReportsHandler {
	return &ReportsHandler{
		service: service,
		logger:  log,
	}
}

// respondServiceError maps service errors onto HTTP statuses. The report
// service degrades transport failures to empty results, so what reaches
// here is either a lookup miss, an unusable catalog or bad input.
func (h *ReportsHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reports.ErrCatalogEmpty):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, reports.ErrUnknownSymbol), errors.Is(err, reports.ErrUnknownSector):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusBadRequest, err.Error())
	}
}

// GetSectors returns the sector list.
// GET /api/sectors
func (h *ReportsHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.service.Sectors(),
	})
}

// GetSecurities returns the security catalog ordered by the requested key.
// GET /api/securities?order_by=volume&asc=false&top=10
func (h *ReportsHandler) GetSecurities(w http.ResponseWriter, r *http.Request) {
	orderBy := r.URL.Query().Get("order_by")
	if orderBy == "" {
		orderBy = "symbol"
	}
	asc := r.URL.Query().Get("asc") != "false"
	topN, err := queryInt(r, "top", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	securities, err := h.service.Securities(orderBy, asc, topN)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    securities,
	})
}

// GetFloorsheet returns the ranked buy/sell report for one security and
// one business date.
// GET /api/floorsheet/{symbol}?date=2024-01-15&top=5
func (h *ReportsHandler) GetFloorsheet(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	date := r.URL.Query().Get("date")
	topN, err := queryInt(r, "top", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.SecurityFloorsheet(r.Context(), symbol, date, topN)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"symbol":  symbol,
		"data":    report,
	})
}

// GetFloorsheetRange returns per-broker totals for one security folded
// over an inclusive date range.
// GET /api/floorsheet/{symbol}/range?start=2024-01-01&end=2024-01-15&order_by=buy
func (h *ReportsHandler) GetFloorsheetRange(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	orderBy := r.URL.Query().Get("order_by")
	if orderBy == "" {
		orderBy = "buy"
	}
	if orderBy != "buy" && orderBy != "sell" {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid order_by %q (want buy or sell)", orderBy))
		return
	}

	totals, err := h.service.FloorsheetRange(r.Context(), symbol, start, end)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"symbol":  symbol,
		"data":    totals.Sorted(orderBy == "sell"),
	})
}

// GetSectorFloorsheet returns per-security reports for every member of a
// sector on one business date.
// GET /api/sectors/{id}/floorsheet?date=2024-01-15&top=5
func (h *ReportsHandler) GetSectorFloorsheet(w http.ResponseWriter, r *http.Request) {
	sectorID, _ := strconv.Atoi(mux.Vars(r)["id"])
	date := r.URL.Query().Get("date")
	topN, err := queryInt(r, "top", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reportsBySymbol, err := h.service.SectorFloorsheet(r.Context(), sectorID, date, topN)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"sector_id": sectorID,
		"data":      reportsBySymbol,
	})
}

// GetSectorCombined returns one sector-wide ranking merged across every
// member security.
// GET /api/sectors/{id}/floorsheet/combined?date=2024-01-15&top=5
func (h *ReportsHandler) GetSectorCombined(w http.ResponseWriter, r *http.Request) {
	sectorID, _ := strconv.Atoi(mux.Vars(r)["id"])
	date := r.URL.Query().Get("date")
	topN, err := queryInt(r, "top", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.SectorCombined(r.Context(), sectorID, date, topN)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"sector_id": sectorID,
		"data":      report,
	})
}

// GetSectorFloorsheetRange returns per-security, per-broker totals for a
// sector folded over an inclusive date range.
// GET /api/sectors/{id}/floorsheet/range?start=2024-01-01&end=2024-01-15
func (h *ReportsHandler) GetSectorFloorsheetRange(w http.ResponseWriter, r *http.Request) {
	sectorID, _ := strconv.Atoi(mux.Vars(r)["id"])
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	totalsBySymbol, err := h.service.SectorFloorsheetRange(r.Context(), sectorID, start, end)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"sector_id": sectorID,
		"data":      totalsBySymbol,
	})
}
