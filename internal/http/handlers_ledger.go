package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"nickel/internal/budget"
	"nickel/internal/core"
	"nickel/internal/ledger"
	nlog "nickel/internal/log"
)

type pageData struct {
	View  budget.View
	Error string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	body, err := s.render(r, "index.html", pageData{View: s.session.View()})
	if err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

func (s *Server) handleLedgerPartial(w http.ResponseWriter, r *http.Request) {
	s.writeLedger(w, r, NewHTMXResponse(), "")
}

// writeLedger renders the ledger fragment into b and sends it.
func (s *Server) writeLedger(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, errMsg string) {
	body, err := s.render(r, "ledger", pageData{View: s.session.View(), Error: errMsg})
	if err != nil {
		InternalServerError("Could not render the budget.").Write(w)
		return
	}
	b.BodyHTML(body).Write(w)
}

// finish answers a mutating request: htmx gets the fresh ledger fragment,
// a plain form post is redirected back to the page.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder) {
	if !IsHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.writeLedger(w, r, b, "")
}

func (s *Server) handleAdd(income bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseForm(w, r); err != nil {
			BadRequestError("Invalid form.").Write(w)
			return
		}
		name, amount := ParseNewTransaction(r)

		add := s.session.AddExpense
		if income {
			add = s.session.AddIncome
		}
		tx, err := add(name, amount)
		if err != nil {
			s.writeEditError(w, r, err)
			return
		}
		s.finish(w, r, NewHTMXResponse().Status(http.StatusCreated).TriggerLedgerChanged(tx.Kind.String(), tx.ID.String()))
	}
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseTransactionID(r)
	if err != nil {
		NotFoundError("Unknown transaction.").Write(w)
		return
	}
	if err := parseForm(w, r); err != nil {
		BadRequestError("Invalid form.").Write(w)
		return
	}
	edit := ParseTransactionEdit(r)
	if edit.Empty() {
		BadRequestError("Nothing to change.").Write(w)
		return
	}

	tx, err := s.session.Edit(id, edit.Name, edit.Amount)
	if err != nil {
		s.writeEditError(w, r, err)
		return
	}
	s.finish(w, r, NewHTMXResponse().TriggerLedgerChanged(tx.Kind.String(), tx.ID.String()))
}

// writeEditError maps domain errors to status codes. For htmx the ledger is
// re-rendered so that the rejected input snaps back to the stored value.
func (s *Server) writeEditError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "Something went wrong."
	switch {
	case errors.Is(err, ledger.ErrTransactionNotFound), errors.Is(err, core.ErrEmptyID):
		status, msg = http.StatusNotFound, "Unknown transaction."
	case errors.Is(err, core.ErrNegativeAmount):
		status, msg = http.StatusUnprocessableEntity, "Amounts cannot be negative."
	case errors.Is(err, core.ErrInvalidAmount):
		status, msg = http.StatusUnprocessableEntity, "That is not an amount."
	case errors.Is(err, core.ErrNameTooLong):
		status, msg = http.StatusUnprocessableEntity, "That name is too long."
	}
	if status == http.StatusInternalServerError {
		nlog.FromContext(r.Context()).Error("Ledger update failed", nlog.FieldError, err)
	}

	if IsHTMX(r) && status != http.StatusNotFound {
		s.writeLedger(w, r, NewHTMXResponse().Status(status).TriggerErrorNotification(msg), msg)
		return
	}
	ErrorResponse(status, msg).Write(w)
}

func (s *Server) handleMonth(delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if delta < 0 {
			s.session.PreviousMonth()
		} else {
			s.session.NextMonth()
		}
		month := s.session.Navigator().Month()
		s.finish(w, r, NewHTMXResponse().TriggerMonthChanged(month.String()))
	}
}

type ledgerRowJSON struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Value   core.Amount `json:"value"`
	Display string      `json:"display"`
	Month   string      `json:"month"`
}

type ledgerJSON struct {
	Month    core.Month      `json:"month"`
	Label    string          `json:"label"`
	Currency string          `json:"currency"`
	Scoped   bool            `json:"scoped"`
	Income   []ledgerRowJSON `json:"income"`
	Expenses []ledgerRowJSON `json:"expenses"`
	Totals   struct {
		Income   core.Amount `json:"income"`
		Expenses core.Amount `json:"expenses"`
		Net      core.Amount `json:"net"`
	} `json:"totals"`
}

func (s *Server) handleLedgerJSON(w http.ResponseWriter, r *http.Request) {
	v := s.session.View()
	out := ledgerJSON{
		Month:    v.Month,
		Label:    v.Label,
		Currency: v.Currency,
		Scoped:   v.Scoped,
		Income:   toRowsJSON(v.Income),
		Expenses: toRowsJSON(v.Expenses),
	}
	out.Totals.Income = v.Totals.Income
	out.Totals.Expenses = v.Totals.Expenses
	out.Totals.Net = v.Totals.Net
	writeJSON(w, r, http.StatusOK, out)
}

func toRowsJSON(rows []budget.Row) []ledgerRowJSON {
	out := make([]ledgerRowJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, ledgerRowJSON{
			ID:      row.ID,
			Name:    row.Name,
			Value:   row.Value,
			Display: row.Amount,
			Month:   row.Month,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	jsonResponse(r, status, v).Write(w)
}

// jsonResponse encodes v into a builder so callers can add triggers.
func jsonResponse(r *http.Request, status int, v any) *HTMXResponseBuilder {
	body, err := json.Marshal(v)
	if err != nil {
		nlog.FromContext(r.Context()).Error("JSON encoding failed", nlog.FieldError, err)
		return InternalServerError("Could not encode the response.")
	}
	return NewHTMXResponse().Status(status).BodyJSON(body)
}
