package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"moneygr/internal/core"
	"moneygr/internal/log"
	"moneygr/internal/lookup"
	"moneygr/internal/report"
	"moneygr/internal/services"
)

// Page names; each is parsed together with layout.html.
const (
	pageIndex    = "index"
	pageOutcomes = "outcomes"
	pageIncomes  = "incomes"
	pageReport   = "report"
	pageError    = "error"
)

var pageNames = []string{pageIndex, pageOutcomes, pageIncomes, pageReport, pageError}

// page is the data handed to every template.
type page struct {
	Title  string
	User   string
	Today  core.Date
	Error  string
	Status int

	Tables *lookup.Tables

	Outcomes    *services.OutcomeListing
	OutcomeForm outcomeForm
	Incomes     *services.IncomeListing
	IncomeForm  incomeForm
	Report      *report.Report
}

type renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"amount": func(v any) string {
		switch n := v.(type) {
		case int:
			return core.FormatAmount(int64(n))
		case int64:
			return core.FormatAmount(n)
		default:
			return fmt.Sprint(v)
		}
	},
	"date": func(d core.Date) string { return d.String() },
	// position is the 1-based index the parentCategoryId parameter expects.
	"position": func(i int) int { return i + 1 },
}

func newRenderer(fsys fs.FS) (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(fsys, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// render executes the page into a buffer first so a template failure can
// still answer 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data *page) {
	t, ok := s.renderer.pages[name]
	if !ok {
		s.renderFailure(w, r, fmt.Errorf("unknown page %q", name))
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.renderFailure(w, r, fmt.Errorf("execute template %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	fields := log.NewFields().WithOperation(log.OpRender).WithError(err)
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Template rendering failed", fields.Args()...)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// fail logs err and answers with the error page and the status statusFor
// picks for it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	fields := log.NewFields().WithError(err).WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "")
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields.Args()...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", fields.Args()...)
	}

	msg := http.StatusText(status)
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}
	s.render(w, r, status, pageError, &page{
		Title:  http.StatusText(status),
		User:   s.user(r),
		Today:  s.today(),
		Error:  msg,
		Status: status,
	})
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrMalformedDate),
		errors.Is(err, core.ErrMalformedInteger),
		errors.Is(err, core.ErrUnknownParent),
		errors.Is(err, errMalformedFlag):
		return http.StatusBadRequest
	case isValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, report.ErrEncode):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrEmptyName,
		core.ErrNameTooLong,
		core.ErrInvalidAmount,
		core.ErrInvalidQuantity,
		core.ErrMissingDate,
		core.ErrMissingCategory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
