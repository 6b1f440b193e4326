package sandbox

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/transfa/bank-api-harness/internal/domain"
	"go.uber.org/zap"
)

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type handler struct {
	store  *store
	logger *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"Failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: status, Error: http.StatusText(status), Message: message})
}

// writeStoreError maps store failures to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// Users

func validateUser(rec domain.UserRecord) string {
	v := domain.Validator()
	if rec.Username == nil {
		return "username is required"
	}
	if err := v.Var(*rec.Username, "required,min=3,max=32"); err != nil {
		return "username must be between 3 and 32 characters"
	}
	if err := v.Var(rec.Email, "required,email"); err != nil {
		return "email must be a valid address"
	}
	if rec.Password != "" && len(rec.Password) < 8 {
		return "password must be at least 8 characters"
	}
	return ""
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var rec domain.UserRecord
	if err := decode(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateUser(rec); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	user, err := h.store.createUser(rec)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	user, err := h.store.getUser(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handler) getUserByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.getUserByUsername(chi.URLParam(r, "username"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.listUsers())
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var rec domain.UserRecord
	if err := decode(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateUser(rec); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	user, err := h.store.updateUser(id, rec)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.store.deleteUser(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Accounts

func validateAccount(rec domain.AccountRecord, requireOwner bool) string {
	if rec.AccountType == "" {
		return "accountType is required"
	}
	if err := domain.Validator().Var(rec.AccountType, "oneof=SAVINGS CHECKING BUSINESS PREMIUM_SAVINGS"); err != nil {
		return "accountType must be one of " + strings.Join(domain.AccountTypes, ", ")
	}
	if rec.Status != "" {
		if err := domain.Validator().Var(rec.Status, "oneof=ACTIVE INACTIVE CLOSED"); err != nil {
			return "status must be one of ACTIVE, INACTIVE, CLOSED"
		}
	}
	if requireOwner && rec.OwnerID == nil {
		return "userId is required"
	}
	if rec.Balance.IsNegative() {
		return "balance must not be negative"
	}
	if rec.CreditLimit.IsNegative() {
		return "creditLimit must not be negative"
	}
	return ""
}

func (h *handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var rec domain.AccountRecord
	if err := decode(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateAccount(rec, true); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	acc, err := h.store.createAccount(rec)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	acc, err := h.store.getAccount(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (h *handler) getAccountByNumber(w http.ResponseWriter, r *http.Request) {
	acc, err := h.store.getAccountByNumber(chi.URLParam(r, "number"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (h *handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.listAccounts(nil))
}

func (h *handler) listAccountsByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if !h.store.userExists(userID) {
		writeStoreError(w, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.store.listAccounts(func(a domain.Account) bool {
		return a.UserID != nil && *a.UserID == userID
	}))
}

func (h *handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	var rec domain.AccountRecord
	if err := decode(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// Updates may omit the owner.
	if msg := validateAccount(rec, false); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	acc, err := h.store.updateAccount(id, rec)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (h *handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	if err := h.store.deleteAccount(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transactions

func validateTransaction(rec domain.TransactionRecord) string {
	v := domain.Validator()
	if err := v.Var(rec.TransactionType, "required,oneof=DEPOSIT WITHDRAWAL TRANSFER"); err != nil {
		return "transactionType must be one of " + strings.Join(domain.TransactionTypes, ", ")
	}
	if !rec.Amount.IsPositive() {
		return "amount must be greater than zero"
	}
	if rec.Currency != "" {
		if err := v.Var(rec.Currency, "iso4217"); err != nil {
			return "currency must be an ISO 4217 code"
		}
	}
	if rec.IsTransfer() && (rec.FromAccountID == nil || rec.ToAccountID == nil) {
		return "transfer requires fromAccountId and toAccountId"
	}
	if rec.FromAccountID == nil && rec.ToAccountID == nil {
		return "an account id is required"
	}
	return ""
}

func (h *handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var rec domain.TransactionRecord
	if err := decode(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateTransaction(rec); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	tx, err := h.store.createTransaction(rec)
	if err != nil {
		h.logger.Debug("transaction rejected", zap.Error(err))
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	tx, err := h.store.getTransaction(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *handler) getTransactionByReference(w http.ResponseWriter, r *http.Request) {
	tx, err := h.store.getTransactionByReference(chi.URLParam(r, "ref"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.store.listTransactions(nil)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *handler) listTransactionsByAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := pathID(r, "accountId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	txs, err := h.store.listTransactions(&accountID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
