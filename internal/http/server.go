package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"zent/internal/cache"
	"zent/internal/core"
	"zent/internal/csvcodec"
	"zent/internal/directory"
	applog "zent/internal/log"
	"zent/internal/middleware/ratelimit"
	"zent/internal/middleware/security"
	"zent/internal/middleware/trace"
	"zent/internal/services"
)

// Ledger is the service surface the API exposes.
type Ledger interface {
	Directory(ctx context.Context) (*directory.Directory, error)
	AddIncome(ctx context.Context, in services.IncomeInput) (services.Receipt, error)
	AddExpense(ctx context.Context, in services.ExpenseInput) (services.Receipt, error)
	AddTransfer(ctx context.Context, in services.TransferInput) (services.Receipt, error)
	DeleteIncome(ctx context.Context, id string) error
	DeleteExpense(ctx context.Context, id string) error
	DeleteTransfer(ctx context.Context, id string) error
	CreateAccount(ctx context.Context, in services.AccountInput) (core.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	Strategy(ctx context.Context) (core.StrategyConfig, error)
	SaveStrategy(ctx context.Context, cfg core.StrategyConfig) (core.StrategyConfig, error)
	Snapshot(ctx context.Context) (core.Dataset, error)
	Views(ctx context.Context, opts services.ViewOptions) (services.Views, error)
	Export(ctx context.Context, w io.Writer, format csvcodec.Format) error
	Import(ctx context.Context, r io.Reader) (services.ImportResult, error)
}

var _ Ledger = (*services.LedgerService)(nil)

// Config tunes the server.
type Config struct {
	Addr              string
	RequestsPerMinute int           // write requests per client
	ViewsCacheTTL     time.Duration // 0 disables caching of derived views
	MaxImportBytes    int64
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		RequestsPerMinute: 60,
		ViewsCacheTTL:     30 * time.Second,
		MaxImportBytes:    10 << 20,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

type Server struct {
	http.Server
	ledger Ledger
	config Config

	views    *cache.LRUCache[services.Views]
	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(config Config, ledger Ledger, logger *applog.Logger) *Server {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.MaxImportBytes <= 0 {
		config.MaxImportBytes = def.MaxImportBytes
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = def.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		ledger:   ledger,
		config:   config,
		tracer:   trace.NewMiddleware(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: config.RequestsPerMinute}),
		detector: security.NewDetector(),
	}
	if config.ViewsCacheTTL > 0 {
		s.views = cache.NewLRUCache[services.Views](64, config.ViewsCacheTTL)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("No route for " + r.Method + " " + r.URL.Path).Write(w)
	})
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("GET /api/incomes", s.handleListIncomes)
	mux.HandleFunc("POST /api/incomes", s.handleCreateIncome)
	mux.HandleFunc("DELETE /api/incomes/{id}", s.handleDeleteEvent(core.KindIncome, ledger.DeleteIncome))
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteEvent(core.KindExpense, ledger.DeleteExpense))
	mux.HandleFunc("GET /api/transfers", s.handleListTransfers)
	mux.HandleFunc("POST /api/transfers", s.handleCreateTransfer)
	mux.HandleFunc("DELETE /api/transfers/{id}", s.handleDeleteEvent(core.KindTransfer, ledger.DeleteTransfer))

	mux.HandleFunc("GET /api/balances", s.handleBalances)
	mux.HandleFunc("GET /api/strategy", s.handleStrategy)
	mux.HandleFunc("PUT /api/strategy", s.handleSaveStrategy)
	mux.HandleFunc("GET /api/chart", s.handleChart)
	mux.HandleFunc("GET /api/movements", s.handleMovements)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	s.Server = http.Server{
		Addr:              config.Addr,
		Handler:           s.middleware(mux, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
	}
	return s
}

// middleware wraps h so that the first entry runs first.
func (s *Server) middleware(h http.Handler, logger *applog.Logger) http.Handler {
	chain := []func(http.Handler) http.Handler{
		s.tracer.Middleware,
		applog.Middleware(logger.WithComponent(applog.ComponentHTTP)),
		applog.RequestIDMiddleware(trace.FromRequest),
		applog.AccessLog(s.detector.ExtractClientIP),
		s.detector.Middleware(true),
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.limiter.Middleware(s.detector.ExtractClientIP, rateLimited,
			http.MethodPost, http.MethodPut, http.MethodDelete),
	}
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.").Write(w)
}

// ViewsCache exposes the derived-views cache so that it can be swept by a
// cache.Manager. It is nil when caching is disabled.
func (s *Server) ViewsCache() cache.Cleaner {
	if s.views == nil {
		return nil
	}
	return s.views
}

// Shutdown gracefully shuts down the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) cachedViews(ctx context.Context, opts services.ViewOptions) (services.Views, error) {
	if s.views == nil {
		return s.ledger.Views(ctx, opts)
	}
	key := viewsKey(opts)
	if v, ok := s.views.Get(key); ok {
		applog.FromContext(ctx).DebugContext(ctx, "Views cache hit", "key", key)
		return v, nil
	}
	v, err := s.ledger.Views(ctx, opts)
	if err != nil {
		return services.Views{}, err
	}
	s.views.Set(key, v)
	return v, nil
}

func viewsKey(opts services.ViewOptions) string {
	key := fmt.Sprintf("%s|%s|%s", opts.ChartView, opts.Display, opts.Account)
	if opts.Range != nil {
		key += fmt.Sprintf("|%d-%d", opts.Range.From.Unix(), opts.Range.To.Unix())
	}
	if c := opts.Config; c != nil {
		key += fmt.Sprintf("|%v", *c)
	}
	return key
}

// invalidate drops every cached view after a write.
func (s *Server) invalidate() {
	if s.views != nil {
		s.views.Purge()
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if _, err := s.ledger.Directory(ctx); err != nil {
		applog.LogError(r.Context(), "Readiness check failed", err, applog.ComponentHTTP, "ready", nil)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()
	sm := s.detector.GetMetrics()
	cached := 0
	if s.views != nil {
		cached = s.views.Size()
	}
	NewJSONResponse().Data(map[string]any{
		"requests_total":      tm.TotalRequests,
		"requests_in_flight":  tm.InFlight,
		"avg_response_ms":     tm.AverageResponseTime.Milliseconds(),
		"rate_limited_total":  rm.TotalHits,
		"rate_limit_clients":  rm.ClientCount,
		"suspicious_requests": sm.SuspiciousRequests,
		"blocked_requests":    sm.BlockedRequests,
		"cached_views":        cached,
	}).Write(w)
}
