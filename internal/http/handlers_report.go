package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"moneygr/internal/chart"
	"moneygr/internal/core"
	"moneygr/internal/report"
)

// reportRequest reads the range (current month by default) and the stack flag.
func (s *Server) reportRequest(r *http.Request) (core.DateRange, bool, error) {
	q := r.URL.Query()
	rng, err := rangeParams(q, core.MonthOf(s.today()))
	if err != nil {
		return core.DateRange{}, false, err
	}
	stack, err := boolParam(q.Get(paramStack))
	if err != nil {
		return core.DateRange{}, false, fmt.Errorf("%s: %w", paramStack, err)
	}
	return rng, stack, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rng, stack, err := s.reportRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.deps.Reports.Generate(r.Context(), rng, stack)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageReport, &page{
		Title:  "Report",
		User:   s.user(r),
		Today:  s.today(),
		Status: http.StatusOK,
		Report: rep,
	})
}

func (s *Server) handleReportChart(w http.ResponseWriter, r *http.Request) {
	rng, stack, err := s.reportRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.deps.Reports.Generate(r.Context(), rng, stack)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := chart.Render(&buf, rep.Series, stack); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", report.ErrEncode, err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
