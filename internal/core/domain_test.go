package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

var ts = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestParseCurrency(t *testing.T) {
	cases := []struct {
		in  string
		out Currency
		ok  bool
	}{
		{"MXN", MXN, true},
		{" usd ", USD, true},
		{"eur", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseCurrency(tc.in)
		if tc.ok && (err != nil || got != tc.out) {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestValidAmount(t *testing.T) {
	cases := []struct {
		v  float64
		ok bool
	}{
		{1, true},
		{0.01, true},
		{0, false},
		{-5, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for i, tc := range cases {
		if ValidAmount(tc.v) != tc.ok {
			t.Fatalf("case %d: ValidAmount(%v) expected %v", i, tc.v, tc.ok)
		}
	}
}

func TestIncomeValidate(t *testing.T) {
	good := IncomeEvent{Timestamp: ts, Amount: 100, Currency: MXN, ConvertedAmount: 100, Account: "bbva"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := -1.0
	bads := []IncomeEvent{
		{Amount: 100, Currency: MXN, Account: "bbva"},
		{Timestamp: ts, Amount: 0, Currency: MXN, Account: "bbva"},
		{Timestamp: ts, Amount: 1, Currency: "EUR", Account: "bbva"},
		{Timestamp: ts, Amount: 1, Currency: MXN, Account: " "},
		{Timestamp: ts, Amount: 1, Currency: USD, Account: "dolarApp", RateUsed: &bad},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransferValidate(t *testing.T) {
	tr := TransferEvent{
		Timestamp: ts, From: "bbva", To: "bbva",
		AmountSent: 1, CurrencySent: MXN, AmountReceived: 1, CurrencyReceived: MXN,
	}
	if err := tr.Validate(); !errors.Is(err, ErrSameAccount) {
		t.Fatalf("expected ErrSameAccount, got %v", err)
	}
	tr.To = "efectivo"
	if err := tr.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	tr.AmountReceived = 0
	if err := tr.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	group, typ, ok := Classify("Supermercado")
	if !ok || group != "Necesidades" || typ != TypeNeed {
		t.Fatalf("unexpected classification: %q %q %v", group, typ, ok)
	}
	group, typ, ok = Classify(CategoryCashWithdrawal)
	if !ok || group != "Movimientos entre Cuentas" || typ != TypeTransfer {
		t.Fatalf("unexpected classification: %q %q %v", group, typ, ok)
	}
	if _, _, ok := Classify("Nope"); ok {
		t.Fatalf("expected unknown category")
	}
}

func TestReasonOf(t *testing.T) {
	err := Fail(ReasonRateUnavailable, "no rate", errors.New("timeout"))
	wrapped := errors.Join(errors.New("ctx"), err)
	if got := ReasonOf(wrapped); got != ReasonRateUnavailable {
		t.Fatalf("expected rate_unavailable, got %s", got)
	}
	if got := ReasonOf(errors.New("x")); got != ReasonInternal {
		t.Fatalf("expected internal, got %s", got)
	}
	if got := ReasonOf(nil); got != "" {
		t.Fatalf("expected empty reason, got %s", got)
	}
	if MessageOf(err) != "no rate" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
}

func TestDateRangeContains(t *testing.T) {
	r := &DateRange{From: ts, To: ts.AddDate(0, 0, 14)}
	if !r.Contains(ts) || !r.Contains(ts.AddDate(0, 0, 14)) {
		t.Fatalf("bounds must be inclusive")
	}
	if r.Contains(ts.Add(-time.Second)) {
		t.Fatalf("expected before-range to be excluded")
	}
	var open *DateRange
	if !open.Contains(ts) || open.Active() {
		t.Fatalf("nil range contains everything and is inactive")
	}
}

func TestStrategyConfigBalanced(t *testing.T) {
	cfg := StrategyConfig{Needs: BucketConfig{Pct: 50}, Wants: BucketConfig{Pct: 30}, Future: BucketConfig{Pct: 20}}
	if !cfg.Balanced() {
		t.Fatalf("50/30/20 should be balanced")
	}
	cfg.Future.Pct = 25
	if cfg.Balanced() || cfg.PctTotal() != 105 {
		t.Fatalf("expected imbalance of 105, got %v", cfg.PctTotal())
	}
}
