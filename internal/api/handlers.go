package api

import (
	"encoding/json"
	"net/http"
	"slices"

	"bankroll/internal/broker"
	"bankroll/internal/domain"
)

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(envelope{Status: "ok", Data: data}); err != nil {
		s.log.Error("encoding JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.Error("request failed", "status", status, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Status: "error", Error: err.Error()})
}

// handlePositions returns the merged positions, sorted by instrument.
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	ps, err := s.account.Positions(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	out := make([]PositionJSON, len(ps))
	for i, p := range ps {
		out[i] = convertPosition(p)
	}
	s.writeJSON(w, out)
}

// handleActivity returns all activity, oldest first. The optional "kind"
// query parameter filters by activity kind.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	acts, err := s.account.Activity(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	if k := r.URL.Query().Get("kind"); k != "" {
		kind, err := domain.ParseActivityKind(k)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		acts = slices.DeleteFunc(acts, func(a domain.Activity) bool { return a.Kind != kind })
	}
	slices.SortStableFunc(acts, func(a, b domain.Activity) int { return a.Date.Compare(b.Date) })

	out := make([]ActivityJSON, len(acts))
	for i, a := range acts {
		out[i] = convertActivity(a)
	}
	s.writeJSON(w, out)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	b, err := s.account.Balance(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, convertBalance(b))
}

// handleAccounts lists the sources behind the aggregated view.
func (s *Server) handleAccounts(w http.ResponseWriter, _ *http.Request) {
	accounts := s.account.Accounts()
	out := make([]AccountJSON, len(accounts))
	for i, a := range accounts {
		out[i] = AccountJSON{
			Index:      i,
			Source:     broker.SourceName(a),
			MarketData: broker.MarketDataOf(a) != nil,
		}
	}
	s.writeJSON(w, out)
}

// handleQuotes returns the latest quotes for every held instrument.
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	md := broker.MarketDataOf(s.account)
	if md == nil {
		s.writeError(w, http.StatusNotFound, errNoMarketData)
		return
	}
	ps, err := s.account.Positions(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	instruments := make([]domain.Instrument, len(ps))
	for i, p := range ps {
		instruments[i] = p.Instrument
	}
	quotes, err := md.FetchQuotes(r.Context(), instruments)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	slices.SortFunc(quotes, func(a, b broker.InstrumentQuote) int { return a.Instrument.Compare(b.Instrument) })
	out := make([]QuoteJSON, len(quotes))
	for i, q := range quotes {
		out[i] = convertQuote(q)
	}
	s.writeJSON(w, out)
}
