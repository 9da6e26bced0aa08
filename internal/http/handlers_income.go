package http

import (
	"net/http"

	"moneygr/internal/core"
	"moneygr/internal/log"
	"moneygr/internal/lookup"
	"moneygr/internal/services"
)

func (s *Server) handleIncomes(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeParams(r.URL.Query(), core.MonthOf(s.today()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tables, err := s.tables(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	listing, err := s.deps.Incomes.ListByDate(r.Context(), tables, rng)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	form := incomeForm{Date: s.today().String()}
	s.renderIncomes(w, r, http.StatusOK, tables, listing, form, "")
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Parse form error", log.FieldError, err.Error())
		s.rejectIncome(w, r, incomeForm{}, core.Date{}, core.ErrMissingDate)
		return
	}
	form := readIncomeForm(r.PostForm)
	in, err := form.toIncome()
	if err != nil {
		s.rejectIncome(w, r, form, in.Date, err)
		return
	}

	in, _, err = s.deps.Incomes.Register(ctx, in, s.user(r))
	if err != nil {
		s.rejectIncome(w, r, form, in.Date, err)
		return
	}
	http.Redirect(w, r, "/incomes?"+paramFromDate+"="+in.Date.FirstOfMonth().String(), http.StatusSeeOther)
}

// rejectIncome redisplays the month of the record, or the current month when
// the date is missing, with the validation message.
func (s *Server) rejectIncome(w http.ResponseWriter, r *http.Request, form incomeForm, day core.Date, cause error) {
	if day.IsZero() {
		day = s.today()
	}
	tables, err := s.tables(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	listing, err := s.deps.Incomes.ListByDate(r.Context(), tables, core.MonthOf(day))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Income rejected",
		log.NewFields().WithOperation(log.OpValidate).WithError(cause).Args()...)
	s.renderIncomes(w, r, http.StatusUnprocessableEntity, tables, listing, form, cause.Error())
}

func (s *Server) renderIncomes(w http.ResponseWriter, r *http.Request, status int, tables *lookup.Tables, listing *services.IncomeListing, form incomeForm, errMsg string) {
	s.render(w, r, status, pageIncomes, &page{
		Title:      "Incomes",
		User:       s.user(r),
		Today:      s.today(),
		Error:      errMsg,
		Status:     status,
		Tables:     tables,
		Incomes:    listing,
		IncomeForm: form,
	})
}
