package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"spreadscope/internal/application/service"
	"spreadscope/internal/domain/model"
	"spreadscope/internal/infrastructure/rates"
)

const (
	defaultQuotesLimit  = 200
	maxQuotesLimit      = 2000
	defaultSpreadsLimit = 100
	maxSpreadsLimit     = 1000
)

type listResponse[T any] struct {
	Count   int `json:"count"`
	Records []T `json:"records"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type convertResponse struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Result float64 `json:"result"`
	Base   string  `json:"base"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

// parseLimit reads an integer query parameter bounded to [1, upper].
func parseLimit(r *http.Request, def, upper int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer")
	}
	if n < 1 || n > upper {
		return 0, fmt.Errorf("limit must be between 1 and %d", upper)
	}
	return n, nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.quotes.Health())
}

func (s *Server) quotesHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultQuotesLimit, maxQuotesLimit)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	q := r.URL.Query()
	recs := s.quotes.Quotes(service.QuoteQuery{
		Exchange: q.Get("exchange"),
		Symbol:   q.Get("symbol"),
		Limit:    limit,
	})
	s.writeJSON(w, http.StatusOK, listResponse[model.NormalizedRecord]{Count: len(recs), Records: recs})
}

func (s *Server) spreadsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultSpreadsLimit, maxSpreadsLimit)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	q := r.URL.Query()
	spreads := s.quotes.Spreads(service.SpreadQuery{
		Symbol:    q.Get("symbol"),
		Exchanges: splitExchanges(q.Get("exchanges")),
		Limit:     limit,
	})
	s.writeJSON(w, http.StatusOK, listResponse[model.SpreadRecord]{Count: len(spreads), Records: spreads})
}

// splitExchanges parses "gate, MEXC" into [gate mexc]. Empty input means no
// filter.
func splitExchanges(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if ex := strings.ToLower(strings.TrimSpace(part)); ex != "" {
			out = append(out, ex)
		}
	}
	return out
}

func (s *Server) ratesHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.rates.Load())
}

func (s *Server) convertHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := strings.ToUpper(q.Get("from")), strings.ToUpper(q.Get("to"))
	if from == "" || to == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "from and to are required")
		return
	}
	amount := decimal.NewFromInt(1)
	if raw := strings.TrimSpace(q.Get("amount")); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, "amount must be a number")
			return
		}
		if !v.IsPositive() {
			s.writeError(w, http.StatusUnprocessableEntity, "amount must be greater than zero")
			return
		}
		amount = v
	}

	table := s.rates.Load()
	result, err := table.Convert(from, to, amount)
	switch {
	case errors.Is(err, rates.ErrUnknownCurrency), errors.Is(err, rates.ErrZeroRate):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "conversion failed")
		return
	}

	s.writeJSON(w, http.StatusOK, convertResponse{
		From:   from,
		To:     to,
		Amount: amount.InexactFloat64(),
		Result: result.InexactFloat64(),
		Base:   table.Base,
	})
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if s.p.FrontendDir != "" {
		index := filepath.Join(s.p.FrontendDir, "index.html")
		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			http.ServeFile(w, r, index)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "SpreadScope API is running",
		"health":  "/health",
		"quotes":  "/api/quotes",
		"spreads": "/api/spreads",
		"stream":  "/ws?exchange=gate",
	})
}
