package infra

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/app"
	"github.com/fd1az/flash-arbitrage/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

// Runner is the executor surface the API drives.
type Runner interface {
	Resolve(ctx context.Context, req app.Request) (*asset.Asset, asset.Amount, domain.SwapPath, error)
	Simulate(ctx context.Context, base *asset.Asset, loan asset.Amount, path domain.SwapPath) domain.ExecutionResult
	TryRun(ctx context.Context, base *asset.Asset, loan asset.Amount, path domain.SwapPath) domain.ExecutionResult
	BalanceOf(ctx context.Context, a *asset.Asset) (asset.Amount, error)
	LookupAsset(symbol string) (*asset.Asset, error)
}

// API exposes quoting and execution over HTTP.
type API struct {
	runner Runner
	pools  app.PoolDirectory
	recent *RecentRuns
	stream *EventStream
	logger logger.LoggerInterface
}

// APIOption configures an API.
type APIOption func(*API)

// WithRecentRuns serves GET /api/runs from r.
func WithRecentRuns(r *RecentRuns) APIOption {
	return func(a *API) { a.recent = r }
}

// WithEventStream serves GET /api/stream from s.
func WithEventStream(s *EventStream) APIOption {
	return func(a *API) { a.stream = s }
}

// NewAPI creates the HTTP API.
func NewAPI(runner Runner, pools app.PoolDirectory, log logger.LoggerInterface, opts ...APIOption) *API {
	a := &API{runner: runner, pools: pools, logger: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns the API routes.
func (a *API) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/health", a.handleHealth).Methods("GET")
	router.HandleFunc("/api/pools", a.handleGetPools).Methods("GET")
	router.HandleFunc("/api/balances/{symbol}", a.handleGetBalance).Methods("GET")
	router.HandleFunc("/api/quote", a.handleQuote).Methods("POST")
	router.HandleFunc("/api/arbitrage", a.handleArbitrage).Methods("POST")
	router.HandleFunc("/api/runs", a.handleGetRuns).Methods("GET")
	if a.stream != nil {
		router.Handle("/api/stream", a.stream).Methods("GET")
	}

	return router
}

type arbitrageRequest struct {
	Base   string   `json:"base"`
	Amount string   `json:"amount"`
	Route  []string `json:"route"`
}

type hopResponse struct {
	Pool string `json:"pool"`
	In   string `json:"in"`
	Out  string `json:"out"`
}

type resultResponse struct {
	Status   string        `json:"status"`
	State    string        `json:"state"`
	Reason   string        `json:"reason,omitempty"`
	Profit   string        `json:"profit,omitempty"`
	Final    string        `json:"final,omitempty"`
	TotalDue string        `json:"total_due,omitempty"`
	Hops     []hopResponse `json:"hops,omitempty"`
	Error    any           `json:"error,omitempty"`
}

type poolResponse struct {
	Pair     string `json:"pair"`
	Address  string `json:"address"`
	FeeBps   uint32 `json:"fee_bps"`
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
	Price    string `json:"price"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleGetPools(w http.ResponseWriter, r *http.Request) {
	pools, err := a.pools.Pools(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]poolResponse, 0, len(pools))
	for _, p := range pools {
		out = append(out, toPoolResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	as, err := a.runner.LookupAsset(vars["symbol"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	bal, err := a.runner.BalanceOf(r.Context(), as)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"asset":   as.Symbol(),
		"balance": bal.ToDecimal().String(),
		"raw":     bal.Raw().String(),
	})
}

func (a *API) handleQuote(w http.ResponseWriter, r *http.Request) {
	base, loan, path, ok := a.decode(w, r)
	if !ok {
		return
	}
	a.writeResult(w, a.runner.Simulate(r.Context(), base, loan, path))
}

func (a *API) handleArbitrage(w http.ResponseWriter, r *http.Request) {
	base, loan, path, ok := a.decode(w, r)
	if !ok {
		return
	}
	a.writeResult(w, a.runner.TryRun(r.Context(), base, loan, path))
}

func (a *API) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	if a.recent == nil {
		writeJSON(w, http.StatusOK, []JournalEntry{})
		return
	}
	writeJSON(w, http.StatusOK, a.recent.List())
}

func (a *API) decode(w http.ResponseWriter, r *http.Request) (*asset.Asset, asset.Amount, domain.SwapPath, bool) {
	var req arbitrageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, apperror.Validation(apperror.CodeInvalidInput, err.Error()))
		return nil, asset.Amount{}, domain.SwapPath{}, false
	}
	base, loan, path, err := a.runner.Resolve(r.Context(), app.Request{
		Base:   req.Base,
		Amount: req.Amount,
		Route:  req.Route,
	})
	if err != nil {
		a.writeError(w, r, err)
		return nil, asset.Amount{}, domain.SwapPath{}, false
	}
	return base, loan, path, true
}

func (a *API) writeResult(w http.ResponseWriter, res domain.ExecutionResult) {
	resp := resultResponse{
		Status: res.Status.String(),
		State:  res.State.String(),
	}
	if !res.Obligation.TotalDue.IsZero() {
		resp.TotalDue = res.Obligation.TotalDue.ToDecimal().String()
	}
	if len(res.Hops) > 0 {
		resp.Final = res.FinalAmount.ToDecimal().String()
	}
	for _, h := range res.Hops {
		resp.Hops = append(resp.Hops, hopResponse{
			Pool: h.Hop.Pool.String(),
			In:   h.In.String(),
			Out:  h.Out.String(),
		})
	}

	status := http.StatusOK
	if res.Committed() {
		resp.Profit = res.Profit.ToDecimal().String()
	} else {
		resp.Reason = string(res.Reason)
		status = http.StatusInternalServerError
		var appErr *apperror.AppError
		if errors.As(res.Err, &appErr) {
			status = appErr.StatusCode
			resp.Error = appErr.ToResponse()["error"]
		}
	}
	writeJSON(w, status, resp)
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Wrap(err, apperror.CodeInternalError, r.URL.Path)
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		a.logger.Error(r.Context(), "api request failed", "path", r.URL.Path, "error", appErr.ToLog())
	}
	writeJSON(w, appErr.StatusCode, appErr.ToResponse())
}

func toPoolResponse(p pricingDomain.Pool) poolResponse {
	price := "0"
	if sp, err := p.SpotPrice(p.Key.Token0()); err == nil {
		price = sp.Rate().String()
	}
	return poolResponse{
		Pair:     p.Key.String(),
		Address:  p.Address.Hex(),
		FeeBps:   uint32(p.Fee),
		Reserve0: p.Reserve0.ToDecimal().String(),
		Reserve1: p.Reserve1.ToDecimal().String(),
		Price:    price,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
