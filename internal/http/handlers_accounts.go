package http

import (
	"net/http"

	"zent/internal/core"
	applog "zent/internal/log"
	"zent/internal/services"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	dir, err := s.ledger.Directory(r.Context())
	if err != nil {
		writeError(w, r, "list_accounts", err)
		return
	}
	accounts := dir.Accounts()
	out := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountDTO(a))
	}
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	acc, err := s.ledger.CreateAccount(r.Context(), services.AccountInput{
		Name:     p.Get("name"),
		Currency: core.Currency(p.Get("currency")),
	})
	if err != nil {
		writeError(w, r, "create_account", err)
		return
	}
	s.invalidate()

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Account created",
		applog.FieldAccount, acc.Slug,
		applog.FieldCurrency, acc.Currency,
		applog.FieldOperation, "create_account")
	NewJSONResponse().Status(http.StatusCreated).Data(toAccountDTO(acc)).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if err := s.ledger.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, r, "delete_account", err)
		return
	}
	s.invalidate()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
