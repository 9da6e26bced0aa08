package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"moneygr/internal/core"
	"moneygr/internal/log"
	"moneygr/internal/lookup"
	"moneygr/internal/services"
)

// handleOutcomes dispatches on the query: parent category filter first, then
// keyword search, then a date range, then today.
func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := s.today()

	rng, err := rangeParams(q, core.DateRange{From: today, To: today})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	parentParam := strings.TrimSpace(q.Get(paramParentCategoryID))
	keyword := strings.TrimSpace(q.Get(paramKeyword))
	hasFrom := strings.TrimSpace(q.Get(paramFromDate)) != ""

	var position int
	if parentParam != "" && hasFrom {
		if position, err = core.ParseID(parentParam); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	tables, err := s.tables(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var listing *services.OutcomeListing
	switch {
	case parentParam != "" && hasFrom:
		listing, err = s.deps.Outcomes.ListByParentCategory(r.Context(), tables, position, rng)
	case keyword != "":
		listing, err = s.deps.Outcomes.Search(r.Context(), tables, keyword)
	default:
		listing, err = s.deps.Outcomes.ListByDate(r.Context(), tables, rng)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderOutcomes(w, r, http.StatusOK, tables, listing, s.newOutcomeForm(r, rng), "")
}

func (s *Server) handleOutcomesOfDay(w http.ResponseWriter, r *http.Request) {
	day, err := core.ParseDate(chi.URLParam(r, "outcomeDate"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rng := core.DateRange{From: day, To: day}
	tables, err := s.tables(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	listing, err := s.deps.Outcomes.ListByDate(r.Context(), tables, rng)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderOutcomes(w, r, http.StatusOK, tables, listing, s.newOutcomeForm(r, rng), "")
}

func (s *Server) handleCreateOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.user(r)

	if err := r.ParseForm(); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Parse form error", log.FieldError, err.Error())
		s.rejectOutcome(w, r, outcomeForm{}, core.Date{}, core.ErrMissingDate)
		return
	}
	form := readOutcomeForm(r.PostForm)
	o, err := form.toOutcome()
	if err != nil {
		s.rejectOutcome(w, r, form, o.Date, err)
		return
	}

	o, _, err = s.deps.Outcomes.Register(ctx, o, user)
	if err != nil {
		s.rejectOutcome(w, r, form, o.Date, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieCreditCard,
		Value:    strconv.FormatBool(o.CreditCard),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/outcomes/"+o.Date.String(), http.StatusSeeOther)
}

// rejectOutcome redisplays the outcomes of the record's day, or of today
// when the date is missing, with the validation message.
func (s *Server) rejectOutcome(w http.ResponseWriter, r *http.Request, form outcomeForm, day core.Date, cause error) {
	if day.IsZero() {
		day = s.today()
	}
	tables, err := s.tables(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	listing, err := s.deps.Outcomes.ListByDate(r.Context(), tables, core.DateRange{From: day, To: day})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Outcome rejected",
		log.NewFields().WithOperation(log.OpValidate).WithError(cause).Args()...)
	s.renderOutcomes(w, r, http.StatusUnprocessableEntity, tables, listing, form, cause.Error())
}

// newOutcomeForm pre-fills the entry form: the viewed day for single day
// views, otherwise today, and the credit card flag of the last submission.
func (s *Server) newOutcomeForm(r *http.Request, rng core.DateRange) outcomeForm {
	day := s.today()
	if !rng.From.IsZero() && rng.From.Equal(rng.To.Time) {
		day = rng.From
	}
	return outcomeForm{Date: day.String(), Quantity: "1", CreditCard: creditCardCookie(r)}
}

func (s *Server) renderOutcomes(w http.ResponseWriter, r *http.Request, status int, tables *lookup.Tables, listing *services.OutcomeListing, form outcomeForm, errMsg string) {
	title := "Outcomes"
	if listing.Parent != nil {
		title = "Outcomes: " + listing.Parent.Name
	}
	s.render(w, r, status, pageOutcomes, &page{
		Title:       title,
		User:        s.user(r),
		Today:       s.today(),
		Error:       errMsg,
		Status:      status,
		Tables:      tables,
		Outcomes:    listing,
		OutcomeForm: form,
	})
}
