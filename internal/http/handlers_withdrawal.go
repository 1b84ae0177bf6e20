package http

import (
	"net/http"
	"strings"

	"payroll/internal/ledger"
	applog "payroll/internal/log"
)

// handleListWithdrawals lists withdrawals newest first, optionally for one
// employee (?employeeId=).
func (s *Server) handleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	filter := ledger.WithdrawalFilter{EmployeeID: strings.TrimSpace(r.URL.Query().Get("employeeId"))}
	NewResponse().JSON(s.store.Withdrawals(filter)).Write(w)
}

func (s *Server) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	wd, err := req.withdrawal("")
	if err != nil {
		s.writeError(w, r, applog.OpCreate, invalid(err))
		return
	}

	created, err := s.store.AddWithdrawal(r.Context(), wd.EmployeeID, wd.Amount, wd.Date, wd.Notes)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleUpdateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	wd, err := req.withdrawal(pathID(r))
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, invalid(err))
		return
	}
	if err := s.store.UpdateWithdrawal(r.Context(), wd); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteWithdrawal(r.Context(), pathID(r)); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
