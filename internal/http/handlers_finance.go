package http

import "net/http"

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.finance.Transactions())
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	created, err := s.finance.AddTransaction(r.Context(), t)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	updated, err := s.finance.UpdateTransaction(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.finance.Categories())
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.finance.AddCategory(r.Context(), req.toCategory())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.finance.UpdateCategory(r.Context(), r.PathValue("id"), req.toPatch())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.finance.Budgets())
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	b, err := req.toBudget()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	created, err := s.finance.AddBudget(r.Context(), b)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	updated, err := s.finance.UpdateBudget(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.DeleteBudget(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}
