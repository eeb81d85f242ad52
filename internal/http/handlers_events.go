package http

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"zent/internal/core"
	applog "zent/internal/log"
	"zent/internal/services"
)

// parseBody reads the request body, answering 400 itself on failure.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, core.ReasonValidation, "Request body too large").Write(w)
			return nil, false
		}
		BadRequestError("Invalid request format").Write(w)
		return nil, false
	}
	return p, true
}

func invalidField(err error) error {
	return core.Fail(core.ReasonValidation, err.Error(), err)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	in := services.IncomeInput{
		Account:  p.Get("account"),
		IsSalary: p.GetBool("is_salary"),
	}
	var err error
	if in.Amount, err = p.GetFloat("amount"); err != nil {
		writeError(w, r, "create_income", invalidField(err))
		return
	}
	if in.Rate, err = p.GetRate("rate"); err != nil {
		writeError(w, r, "create_income", invalidField(err))
		return
	}
	if in.Timestamp, err = p.GetTime("timestamp"); err != nil {
		writeError(w, r, "create_income", invalidField(err))
		return
	}
	if c := p.Get("currency"); c != "" {
		if in.Currency, err = core.ParseCurrency(c); err != nil {
			writeError(w, r, "create_income", invalidField(err))
			return
		}
	}

	receipt, err := s.ledger.AddIncome(r.Context(), in)
	s.respondReceipt(w, r, "create_income", receipt, err)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	in := services.ExpenseInput{
		Account:  p.Get("account"),
		Category: p.Get("category"),
	}
	var err error
	if in.Amount, err = p.GetFloat("amount"); err != nil {
		writeError(w, r, "create_expense", invalidField(err))
		return
	}
	if in.Timestamp, err = p.GetTime("timestamp"); err != nil {
		writeError(w, r, "create_expense", invalidField(err))
		return
	}

	receipt, err := s.ledger.AddExpense(r.Context(), in)
	s.respondReceipt(w, r, "create_expense", receipt, err)
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	in := services.TransferInput{
		From: p.Get("from"),
		To:   p.Get("to"),
	}
	var err error
	if in.AmountSent, err = p.GetFloat("amount_sent"); err != nil {
		writeError(w, r, "create_transfer", invalidField(err))
		return
	}
	if p.Has("amount_received") {
		if in.AmountReceived, err = p.GetFloat("amount_received"); err != nil {
			writeError(w, r, "create_transfer", invalidField(err))
			return
		}
	}
	if in.Rate, err = p.GetRate("rate"); err != nil {
		writeError(w, r, "create_transfer", invalidField(err))
		return
	}
	if in.Timestamp, err = p.GetTime("timestamp"); err != nil {
		writeError(w, r, "create_transfer", invalidField(err))
		return
	}

	receipt, err := s.ledger.AddTransfer(r.Context(), in)
	s.respondReceipt(w, r, "create_transfer", receipt, err)
}

func (s *Server) respondReceipt(w http.ResponseWriter, r *http.Request, operation string, receipt services.Receipt, err error) {
	if err != nil {
		writeError(w, r, operation, err)
		return
	}
	s.invalidate()

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Event created",
		applog.FieldEventKind, receipt.Kind,
		applog.FieldEventID, receipt.ID,
		applog.FieldOperation, operation)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/"+string(receipt.Kind)+"s/"+receipt.ID).
		Data(receiptDTO{OK: true, Kind: string(receipt.Kind), ID: receipt.ID}).
		Write(w)
}

func (s *Server) handleDeleteEvent(kind core.EventKind, del func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sanitizeInput(r.PathValue("id"))
		if err := del(r.Context(), id); err != nil {
			writeError(w, r, "delete_"+string(kind), err)
			return
		}
		s.invalidate()
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
	}
}

// snapshotInRange loads every event, answering the request itself on failure.
func (s *Server) snapshotInRange(w http.ResponseWriter, r *http.Request) (core.Dataset, *core.DateRange, bool) {
	rng, err := ParseDateRange(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return core.Dataset{}, nil, false
	}
	ds, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, "snapshot", err)
		return core.Dataset{}, nil, false
	}
	return ds, rng, true
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	ds, rng, ok := s.snapshotInRange(w, r)
	if !ok {
		return
	}
	out := make([]incomeDTO, 0, len(ds.Incomes))
	for _, e := range ds.Incomes {
		if rng.Contains(e.Timestamp) {
			out = append(out, toIncomeDTO(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ds, rng, ok := s.snapshotInRange(w, r)
	if !ok {
		return
	}
	out := make([]expenseDTO, 0, len(ds.Expenses))
	for _, e := range ds.Expenses {
		if rng.Contains(e.Timestamp) {
			out = append(out, toExpenseDTO(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	ds, rng, ok := s.snapshotInRange(w, r)
	if !ok {
		return
	}
	out := make([]transferDTO, 0, len(ds.Transfers))
	for _, t := range ds.Transfers {
		if rng.Contains(t.Timestamp) {
			out = append(out, toTransferDTO(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	NewJSONResponse().Data(out).Write(w)
}
