package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const resourceTransaction = "Transaction"

type transactionList struct {
	Success      bool               `json:"success"`
	Count        int                `json:"count"`
	Transactions []core.Transaction `json:"transactions"`
}

type dataEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := principal(r)
	if err != nil {
		s.fail(w, r, log.OpList, resourceTransaction, err)
		return
	}
	f, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		s.fail(w, r, log.OpList, resourceTransaction, err)
		return
	}

	txs, err := s.deps.Transactions.List(r.Context(), userID, f)
	if err != nil {
		s.fail(w, r, log.OpList, resourceTransaction, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}

	NewJSONResponse().
		Body(transactionList{Success: true, Count: len(txs), Transactions: txs}).
		Write(w)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := principal(r)
	if err != nil {
		s.fail(w, r, log.OpCreate, resourceTransaction, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpCreate, resourceTransaction, err)
		return
	}
	in, err := req.newTransaction()
	if err != nil {
		s.fail(w, r, log.OpCreate, resourceTransaction, err)
		return
	}

	tx, err := s.deps.Transactions.Add(r.Context(), userID, in)
	if err != nil {
		s.fail(w, r, log.OpCreate, resourceTransaction, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(dataEnvelope{Success: true, Data: tx}).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := principal(r)
	if err != nil {
		s.fail(w, r, log.OpUpdate, resourceTransaction, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpUpdate, resourceTransaction, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, resourceTransaction, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		s.fail(w, r, log.OpUpdate, resourceTransaction, err)
		return
	}

	tx, err := s.deps.Transactions.Update(r.Context(), userID, id, patch)
	if err != nil {
		s.fail(w, r, log.OpUpdate, resourceTransaction, err)
		return
	}

	NewJSONResponse().Body(dataEnvelope{Success: true, Data: tx}).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := principal(r)
	if err != nil {
		s.fail(w, r, log.OpDelete, resourceTransaction, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpDelete, resourceTransaction, err)
		return
	}

	if err := s.deps.Transactions.Remove(r.Context(), userID, id); err != nil {
		s.fail(w, r, log.OpDelete, resourceTransaction, err)
		return
	}

	NewJSONResponse().Body(dataEnvelope{Success: true, Data: struct{}{}}).Write(w)
}
