package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

const defaultLedgerLimit = 100
const maxLedgerLimit = 1000

// handleGetProtocol returns the protocol-wide aggregate entity
func (s *Server) handleGetProtocol(w http.ResponseWriter, r *http.Request) {
	protocol, err := s.store.GetProtocol(r.Context(), s.protocolID)
	if err != nil {
		status, code, msg := mapIndexingError(err)
		respondError(w, status, code, msg, nil)
		return
	}
	if protocol == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "protocol not indexed yet", nil)
		return
	}
	respondJSON(w, http.StatusOK, protocol)
}

// handleListMarkets returns every market registered on the protocol
func (s *Server) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	protocol, err := s.store.GetProtocol(r.Context(), s.protocolID)
	if err != nil {
		status, code, msg := mapIndexingError(err)
		respondError(w, status, code, msg, nil)
		return
	}
	if protocol == nil {
		respondJSON(w, http.StatusOK, []*models.Market{})
		return
	}

	markets := make([]*models.Market, 0, len(protocol.MarketIDList))
	for _, id := range protocol.MarketIDList {
		market, err := s.store.GetMarket(r.Context(), id)
		if err != nil {
			status, code, msg := mapIndexingError(err)
			respondError(w, status, code, msg, nil)
			return
		}
		if market != nil {
			markets = append(markets, market)
		}
	}
	respondJSON(w, http.StatusOK, markets)
}

// handleGetMarket returns a single market by id
func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	market, err := s.store.GetMarket(r.Context(), id)
	if err != nil {
		status, code, msg := mapIndexingError(err)
		respondError(w, status, code, msg, nil)
		return
	}
	if market == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "market not found", map[string]interface{}{"marketId": id})
		return
	}
	respondJSON(w, http.StatusOK, market)
}

// handleGetMarketLedger returns recent ledger entries for a market
func (s *Server) handleGetMarketLedger(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	limit := parseLimit(r)

	entries, err := s.ledger.GetLedgerEntriesByMarket(r.Context(), id, limit)
	if err != nil {
		status, code, msg := mapIndexingError(err)
		respondError(w, status, code, msg, nil)
		return
	}
	if entries == nil {
		entries = []*models.LedgerEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// handleGetAccountLedger returns recent ledger entries touching an address
func (s *Server) handleGetAccountLedger(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	limit := parseLimit(r)

	entries, err := s.ledger.GetLedgerEntriesByAccount(r.Context(), address, limit)
	if err != nil {
		status, code, msg := mapIndexingError(err)
		respondError(w, status, code, msg, nil)
		return
	}
	if entries == nil {
		entries = []*models.LedgerEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// handleGetFinancialsSnapshot returns the daily financials snapshot for a
// day index
func (s *Server) handleGetFinancialsSnapshot(w http.ResponseWriter, r *http.Request) {
	day := mux.Vars(r)["day"]
	if _, err := strconv.ParseInt(day, 10, 64); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "day must be a UTC day index", nil)
		return
	}

	snap, err := s.store.GetFinancialsSnapshot(r.Context(), day)
	if err != nil {
		status, code, msg := mapIndexingError(err)
		respondError(w, status, code, msg, nil)
		return
	}
	if snap == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "no snapshot for day", map[string]interface{}{"day": day})
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// handleGetUsageSnapshot returns a usage snapshot by granularity and bucket
// id ("163" for daily buckets, "163-11" for hourly ones)
func (s *Server) handleGetUsageSnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	granularity := types.Granularity(vars["granularity"])
	if granularity != types.GranularityDaily && granularity != types.GranularityHourly {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "granularity must be daily or hourly", nil)
		return
	}

	snap, err := s.store.GetUsageSnapshot(r.Context(), granularity, vars["id"])
	if err != nil {
		status, code, msg := mapIndexingError(err)
		respondError(w, status, code, msg, nil)
		return
	}
	if snap == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "no snapshot for bucket", map[string]interface{}{"id": vars["id"]})
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func parseLimit(r *http.Request) int {
	limit := defaultLedgerLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLedgerLimit {
		limit = maxLedgerLimit
	}
	return limit
}
