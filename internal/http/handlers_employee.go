package http

import (
	"net/http"

	applog "payroll/internal/log"
)

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.store.Employees()).Write(w)
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	e, err := req.employee("")
	if err != nil {
		s.writeError(w, r, applog.OpCreate, invalid(err))
		return
	}

	created, err := s.store.AddEmployee(r.Context(), e.Name, e.BaseSalary)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

// handleUpdateEmployee replaces name and salary. Unknown ids are a no-op.
func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	e, err := req.employee(pathID(r))
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, invalid(err))
		return
	}
	if err := s.store.UpdateEmployee(r.Context(), e); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// handleDeleteEmployee removes the employee together with its withdrawals.
func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteEmployee(r.Context(), pathID(r)); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
