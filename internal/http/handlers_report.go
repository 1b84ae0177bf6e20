package http

import (
	"bytes"
	"net/http"
	"strconv"

	"payroll/internal/core"
	"payroll/internal/export"
	"payroll/internal/i18n"
	applog "payroll/internal/log"
)

type dashboardResponse struct {
	dashboardView
	Period      string       `json:"period"`
	PeriodLabel string       `json:"periodLabel"`
	Display     moneyDisplay `json:"display"`
}

type reportResponse struct {
	core.Report
	Period      string `json:"period"`
	PeriodLabel string `json:"periodLabel"`
}

func (s *Server) period(r *http.Request) (core.Period, error) {
	p, err := ParsePeriod(r.URL.Query(), s.now())
	if err != nil {
		return core.Period{}, &badQuery{err: err}
	}
	return p, nil
}

// handleDashboard returns the fleet summary for ?year=&month= (default: now).
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := s.period(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	v := s.dashboard(r.Context(), p)
	NewResponse().JSON(dashboardResponse{
		dashboardView: v,
		Period:        p.String(),
		PeriodLabel:   i18n.PeriodLabel(p),
		Display:       displayOf(v.Dashboard),
	}).Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	p, err := s.period(r)
	if err != nil {
		s.writeError(w, r, applog.OpReport, err)
		return
	}
	NewResponse().JSON(reportResponse{
		Report:      s.report(r.Context(), p),
		Period:      p.String(),
		PeriodLabel: i18n.PeriodLabel(p),
	}).Write(w)
}

func (s *Server) handleReportYears(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string][]int{"years": s.store.ReportYears(s.now())}).Write(w)
}

// handleExportCSV downloads the period report as a BOM-prefixed CSV file.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	p, err := s.period(r)
	if err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, s.report(r.Context(), p)); err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", `attachment; filename="`+export.FileName(p)+`"`)
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
