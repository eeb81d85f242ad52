package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zent/internal/amqp"
	"zent/internal/core"
	"zent/internal/currency"
	"zent/internal/directory"
	"zent/internal/ports"
	"zent/internal/strategy"
)

const defaultRateTimeout = 5 * time.Second

type (
	IncomeInput struct {
		Account   string
		Amount    float64
		Currency  core.Currency // defaults to the account's currency
		Rate      *float64      // manual USD rate; the live rate is fetched when nil
		IsSalary  bool
		Timestamp time.Time // defaults to now
	}

	ExpenseInput struct {
		Account   string
		Amount    float64 // in the account's currency
		Category  string
		Timestamp time.Time
	}

	TransferInput struct {
		From           string
		To             string
		AmountSent     float64
		AmountReceived float64 // required across currencies, defaults to AmountSent otherwise
		Rate           *float64
		Timestamp      time.Time
	}

	AccountInput struct {
		Name     string
		Currency core.Currency
	}

	// Receipt identifies what a write stored. A cash withdrawal entered as an
	// expense comes back as a transfer.
	Receipt struct {
		Kind core.EventKind
		ID   string
	}
)

// LedgerService applies the write-time rules in front of the store and
// composes the derived views.
type LedgerService struct {
	store       ports.Store
	rates       RateProvider
	publisher   ChangePublisher
	userID      string
	rateTimeout time.Duration
	now         func() time.Time
}

type Option func(*LedgerService)

// WithPublisher announces every successful write for userID.
func WithPublisher(p ChangePublisher, userID string) Option {
	return func(s *LedgerService) {
		s.publisher = p
		s.userID = userID
	}
}

// WithRateTimeout bounds the live-rate lookup of a write.
func WithRateTimeout(d time.Duration) Option {
	return func(s *LedgerService) {
		if d > 0 {
			s.rateTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(store ports.Store, rates RateProvider, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:       store,
		rates:       rates,
		rateTimeout: defaultRateTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Directory merges the built-in accounts with the stored ones.
func (s *LedgerService) Directory(ctx context.Context) (*directory.Directory, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, storeFailure("list accounts", err)
	}
	return directory.New(core.BuiltinAccounts(), accounts), nil
}

func (s *LedgerService) AddIncome(ctx context.Context, in IncomeInput) (Receipt, error) {
	if !core.ValidAmount(in.Amount) {
		return Receipt{}, core.Fail(core.ReasonValidation, "amount must be a positive number", core.ErrInvalidAmount)
	}
	acc, err := s.resolve(ctx, in.Account)
	if err != nil {
		return Receipt{}, err
	}
	cur := acc.Currency
	if in.Currency != "" {
		if cur, err = core.ParseCurrency(string(in.Currency)); err != nil {
			return Receipt{}, core.Fail(core.ReasonValidation, fmt.Sprintf("unsupported currency %q", in.Currency), err)
		}
	}

	ev := core.IncomeEvent{
		Timestamp:       s.timestamp(in.Timestamp),
		Amount:          in.Amount,
		Currency:        cur,
		ConvertedAmount: in.Amount,
		Account:         acc.Slug,
		IsSalary:        in.IsSalary,
	}
	if cur != core.BaseCurrency {
		rate, err := s.writeRate(ctx, in.Rate)
		if err != nil {
			return Receipt{}, err
		}
		ev.RateUsed = &rate
		ev.ConvertedAmount = in.Amount * rate
	}
	ev.OriginalText = core.IncomeText(ev.Amount, ev.Currency, ev.RateUsed)

	id, err := s.store.AddIncome(ctx, ev)
	if err != nil {
		return Receipt{}, storeFailure("store income", err)
	}
	slog.InfoContext(ctx, "Income recorded",
		"component", "ledger",
		"event_id", id,
		"account", ev.Account,
		"amount", ev.Amount,
		"currency", ev.Currency,
		"salary", ev.IsSalary)
	s.publish(ctx, core.KindIncome, id, amqp.OpUpsert)
	return Receipt{Kind: core.KindIncome, ID: id}, nil
}

// AddExpense stores an expense in the paying account's currency. A cash
// withdrawal from an account that shares the cash account's currency is
// stored as a transfer to the cash account instead.
func (s *LedgerService) AddExpense(ctx context.Context, in ExpenseInput) (Receipt, error) {
	if !core.ValidAmount(in.Amount) {
		return Receipt{}, core.Fail(core.ReasonValidation, "amount must be a positive number", core.ErrInvalidAmount)
	}
	group, typ, ok := core.Classify(in.Category)
	if !ok {
		return Receipt{}, core.Fail(core.ReasonValidation, fmt.Sprintf("unknown category %q", in.Category), core.ErrUnknownCategory)
	}
	dir, err := s.Directory(ctx)
	if err != nil {
		return Receipt{}, err
	}
	acc, ok := dir.Resolve(in.Account)
	if !ok {
		return Receipt{}, unknownAccount(in.Account)
	}
	ts := s.timestamp(in.Timestamp)

	if in.Category == core.CategoryCashWithdrawal {
		if cash, ok := dir.Resolve(core.CashAccountSlug); ok && cash.Slug != acc.Slug && cash.Currency == acc.Currency {
			return s.storeTransfer(ctx, core.TransferEvent{
				Timestamp:        ts,
				From:             acc.Slug,
				To:               cash.Slug,
				AmountSent:       in.Amount,
				CurrencySent:     acc.Currency,
				AmountReceived:   in.Amount,
				CurrencyReceived: cash.Currency,
				IsWithdrawal:     true,
			})
		}
	}

	ev := core.ExpenseEvent{
		Timestamp:       ts,
		Amount:          in.Amount,
		Currency:        acc.Currency,
		ConvertedAmount: in.Amount,
		Category:        in.Category,
		Group:           group,
		Type:            typ,
		Account:         acc.Slug,
	}
	if acc.Currency != core.BaseCurrency {
		rate, err := s.writeRate(ctx, nil)
		if err != nil {
			return Receipt{}, err
		}
		ev.ConvertedAmount = in.Amount * rate
	}

	id, err := s.store.AddExpense(ctx, ev)
	if err != nil {
		return Receipt{}, storeFailure("store expense", err)
	}
	slog.InfoContext(ctx, "Expense recorded",
		"component", "ledger",
		"event_id", id,
		"account", ev.Account,
		"amount", ev.Amount,
		"currency", ev.Currency,
		"category", ev.Category)
	s.publish(ctx, core.KindExpense, id, amqp.OpUpsert)
	return Receipt{Kind: core.KindExpense, ID: id}, nil
}

// AddTransfer moves money between two accounts. Across currencies the rate
// and the received amount are mandatory and the spread is the base-currency
// difference between what left and what arrived.
func (s *LedgerService) AddTransfer(ctx context.Context, in TransferInput) (Receipt, error) {
	if !core.ValidAmount(in.AmountSent) {
		return Receipt{}, core.Fail(core.ReasonValidation, "amount sent must be a positive number", core.ErrInvalidAmount)
	}
	dir, err := s.Directory(ctx)
	if err != nil {
		return Receipt{}, err
	}
	from, ok := dir.Resolve(in.From)
	if !ok {
		return Receipt{}, unknownAccount(in.From)
	}
	to, ok := dir.Resolve(in.To)
	if !ok {
		return Receipt{}, unknownAccount(in.To)
	}
	if from.Slug == to.Slug {
		return Receipt{}, core.Fail(core.ReasonValidation, "source and destination accounts must differ", core.ErrSameAccount)
	}

	ev := core.TransferEvent{
		Timestamp:        s.timestamp(in.Timestamp),
		From:             from.Slug,
		To:               to.Slug,
		AmountSent:       in.AmountSent,
		CurrencySent:     from.Currency,
		AmountReceived:   in.AmountSent,
		CurrencyReceived: to.Currency,
	}

	if from.Currency == to.Currency {
		if in.AmountReceived != 0 {
			if !core.ValidAmount(in.AmountReceived) {
				return Receipt{}, core.Fail(core.ReasonValidation, "amount received must be a positive number", core.ErrInvalidAmount)
			}
			ev.AmountReceived = in.AmountReceived
		}
		if in.Rate != nil {
			if !core.ValidRate(in.Rate) {
				return Receipt{}, core.Fail(core.ReasonValidation, "rate must be a positive number", core.ErrInvalidRate)
			}
			ev.Rate = core.Rate(*in.Rate)
		}
		return s.storeTransfer(ctx, ev)
	}

	if !core.ValidRate(in.Rate) {
		return Receipt{}, core.Fail(core.ReasonValidation, "a positive rate is required between currencies", core.ErrInvalidRate)
	}
	if !core.ValidAmount(in.AmountReceived) {
		return Receipt{}, core.Fail(core.ReasonValidation, "amount received is required between currencies", core.ErrInvalidAmount)
	}
	rate := *in.Rate
	ev.Rate = core.Rate(rate)
	ev.AmountReceived = in.AmountReceived
	ev.Spread = core.Round2(
		currency.ToBase(ev.AmountSent, ev.CurrencySent, ev.Rate, rate) -
			currency.ToBase(ev.AmountReceived, ev.CurrencyReceived, ev.Rate, rate))
	return s.storeTransfer(ctx, ev)
}

func (s *LedgerService) storeTransfer(ctx context.Context, ev core.TransferEvent) (Receipt, error) {
	id, err := s.store.AddTransfer(ctx, ev)
	if err != nil {
		return Receipt{}, storeFailure("store transfer", err)
	}
	slog.InfoContext(ctx, "Transfer recorded",
		"component", "ledger",
		"event_id", id,
		"from", ev.From,
		"to", ev.To,
		"amount_sent", ev.AmountSent,
		"amount_received", ev.AmountReceived,
		"spread", ev.Spread,
		"withdrawal", ev.IsWithdrawal)
	s.publish(ctx, core.KindTransfer, id, amqp.OpUpsert)
	return Receipt{Kind: core.KindTransfer, ID: id}, nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, id string) error {
	return s.deleteEvent(ctx, core.KindIncome, id, s.store.DeleteIncome)
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	return s.deleteEvent(ctx, core.KindExpense, id, s.store.DeleteExpense)
}

func (s *LedgerService) DeleteTransfer(ctx context.Context, id string) error {
	return s.deleteEvent(ctx, core.KindTransfer, id, s.store.DeleteTransfer)
}

func (s *LedgerService) deleteEvent(ctx context.Context, kind core.EventKind, id string, del func(context.Context, string) error) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Fail(core.ReasonValidation, "missing id", nil)
	}
	if err := del(ctx, id); err != nil {
		return storeFailure(fmt.Sprintf("delete %s %s", kind, id), err)
	}
	slog.InfoContext(ctx, "Event deleted", "component", "ledger", "event_kind", kind, "event_id", id)
	s.publish(ctx, kind, id, amqp.OpDelete)
	return nil
}

// CreateAccount stores a user account under a slug derived from its name.
func (s *LedgerService) CreateAccount(ctx context.Context, in AccountInput) (core.Account, error) {
	cur, err := core.ParseCurrency(string(in.Currency))
	if err != nil {
		return core.Account{}, core.Fail(core.ReasonValidation, fmt.Sprintf("unsupported currency %q", in.Currency), err)
	}
	acc := core.Account{Name: strings.TrimSpace(in.Name), Currency: cur}
	if err := acc.Validate(); err != nil {
		return core.Account{}, core.Fail(core.ReasonValidation, err.Error(), err)
	}
	dir, err := s.Directory(ctx)
	if err != nil {
		return core.Account{}, err
	}
	acc.Slug = dir.UniqueSlug(acc.Name)

	stored, err := s.store.CreateAccount(ctx, acc)
	if err != nil {
		return core.Account{}, storeFailure("create account", err)
	}
	slog.InfoContext(ctx, "Account created", "component", "ledger", "account", stored.Slug, "currency", stored.Currency)
	return stored, nil
}

// DeleteAccount removes a user account. Events keep their reference to it.
func (s *LedgerService) DeleteAccount(ctx context.Context, id string) error {
	for _, b := range core.BuiltinAccounts() {
		if id == b.ID || id == b.Slug {
			return core.Fail(core.ReasonValidation, fmt.Sprintf("built-in account %s cannot be deleted", b.Name), nil)
		}
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return storeFailure("delete account "+id, err)
	}
	slog.InfoContext(ctx, "Account deleted", "component", "ledger", "account_id", id)
	return nil
}

// Strategy returns the stored configuration, or the 50/30/20 default.
func (s *LedgerService) Strategy(ctx context.Context) (core.StrategyConfig, error) {
	cfg, found, err := s.store.LoadStrategy(ctx)
	if err != nil {
		return core.StrategyConfig{}, storeFailure("load strategy", err)
	}
	if !found {
		return strategy.DefaultConfig(), nil
	}
	return cfg, nil
}

// SaveStrategy clamps the percentages and requires every bucket account to
// resolve. Percentages that do not add up to 100 are accepted.
func (s *LedgerService) SaveStrategy(ctx context.Context, cfg core.StrategyConfig) (core.StrategyConfig, error) {
	dir, err := s.Directory(ctx)
	if err != nil {
		return core.StrategyConfig{}, err
	}
	for _, b := range core.Buckets {
		bc := cfg.Bucket(b)
		cfg = strategy.SetPct(cfg, b, bc.Pct)
		acc, ok := dir.Resolve(bc.Account)
		if !ok {
			return core.StrategyConfig{}, unknownAccount(bc.Account)
		}
		cfg = strategy.SetAccount(cfg, b, acc.Slug)
	}
	if err := s.store.SaveStrategy(ctx, cfg); err != nil {
		return core.StrategyConfig{}, storeFailure("save strategy", err)
	}
	if !cfg.Balanced() {
		slog.WarnContext(ctx, "Strategy percentages do not add up to 100", "component", "ledger", "total", cfg.PctTotal())
	}
	return cfg, nil
}

func (s *LedgerService) resolve(ctx context.Context, ref string) (core.Account, error) {
	dir, err := s.Directory(ctx)
	if err != nil {
		return core.Account{}, err
	}
	acc, ok := dir.Resolve(ref)
	if !ok {
		return core.Account{}, unknownAccount(ref)
	}
	return acc, nil
}

// writeRate returns the manual rate when given, otherwise the live rate. A
// write never proceeds on a guessed rate.
func (s *LedgerService) writeRate(ctx context.Context, manual *float64) (float64, error) {
	if manual != nil {
		if !core.ValidRate(manual) {
			return 0, core.Fail(core.ReasonValidation, "rate must be a positive number", core.ErrInvalidRate)
		}
		return *manual, nil
	}
	if s.rates == nil {
		return 0, core.Fail(core.ReasonRateUnavailable, "no exchange rate source configured", currency.ErrRateUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.rateTimeout)
	defer cancel()
	rate, err := s.rates.Strict(ctx)
	if err == nil && !core.ValidAmount(rate) {
		err = currency.ErrRateUnavailable
	}
	if err != nil {
		slog.WarnContext(ctx, "Live exchange rate unavailable, write rejected", "component", "rate", "error", err)
		return 0, core.Fail(core.ReasonRateUnavailable, "could not fetch the USD exchange rate", err)
	}
	return rate, nil
}

func (s *LedgerService) timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t.UTC()
}

// publish never fails the write; the outbox still carries the change.
func (s *LedgerService) publish(ctx context.Context, kind core.EventKind, id, op string) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangeMessage(s.userID, kind, id, op)
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"component", "amqp",
			"event_kind", kind,
			"event_id", id,
			"op", op,
			"error", err)
	}
}

func unknownAccount(ref string) error {
	return core.Fail(core.ReasonUnknownAccount, fmt.Sprintf("unknown account %q", ref), nil)
}

// storeFailure maps store errors onto reason codes.
func storeFailure(action string, err error) error {
	var coded *core.Error
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, ports.ErrNotFound):
		return core.Fail(core.ReasonNotFound, action+": not found", err)
	case errors.Is(err, ports.ErrDuplicate):
		return core.Fail(core.ReasonValidation, action+": already exists", err)
	case isValidation(err):
		return core.Fail(core.ReasonValidation, action+": "+err.Error(), err)
	}
	return core.Fail(core.ReasonStorage, action+" failed", err)
}

func isValidation(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount, core.ErrInvalidCurrency, core.ErrEmptyAccount, core.ErrEmptyName,
		core.ErrSameAccount, core.ErrUnknownCategory, core.ErrInvalidRate, core.ErrMissingTimestamp,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
