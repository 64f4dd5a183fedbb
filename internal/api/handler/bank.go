// internal/api/handler/bank.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"securebank/internal/api/types"
	"securebank/internal/domain"
	"securebank/internal/service"
	"securebank/internal/util" // For custom errors
)

// DefaultTimeout bounds how long a single request may run.
const DefaultTimeout = 15 * time.Second

// BankHandler handles HTTP requests for the bank facade.
type BankHandler struct {
	service service.BankService
	logger  *slog.Logger
	now     func() time.Time
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(svc service.BankService, logger *slog.Logger) *BankHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BankHandler{
		service: svc,
		logger:  logger,
		now:     time.Now,
	}
}

// Helper function to send JSON responses.
func (h *BankHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h *BankHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidAmount):
		statusCode = http.StatusBadRequest
		message = "Invalid amount"
	case util.IsError(err, util.ErrPasswordTooLong):
		statusCode = http.StatusBadRequest
		message = "Password is too long"
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = "Please fill in all required fields"
	case util.IsError(err, util.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		message = "Invalid credentials"
	case util.IsError(err, util.ErrNotLoggedIn):
		statusCode = http.StatusUnauthorized
		message = "Please log in first"
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = "Insufficient funds"
	case util.IsError(err, util.ErrRecipientNotFound):
		statusCode = http.StatusNotFound
		message = "Recipient account not found"
	case util.IsError(err, util.ErrDuplicateUsername):
		statusCode = http.StatusConflict
		message = "Username already exists"
	case util.IsError(err, util.ErrSelfTransfer):
		statusCode = http.StatusUnprocessableEntity
		message = "Cannot transfer to your own account"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// respondWithAccount writes user together with the notification its own call produced.
func (h *BankHandler) respondWithAccount(w http.ResponseWriter, code int, user *domain.User, n domain.Notification) {
	h.respondWithJSON(w, code, types.AccountResponse{
		User:         types.NewUserResponse(user),
		Notification: types.NewNotificationResponse(n, h.now()),
	})
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Register handles account creation.
// POST /register
func (h *BankHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	user, notice, err := h.service.Register(r.Context(), domain.Profile{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithAccount(w, http.StatusCreated, user, notice)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles session creation.
// POST /login
func (h *BankHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	user, notice, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithAccount(w, http.StatusOK, user, notice)
}

// Logout ends the session.
// POST /logout
func (h *BankHandler) Logout(w http.ResponseWriter, r *http.Request) {
	notice, err := h.service.Logout(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithAccount(w, http.StatusOK, nil, notice)
}

// Session returns the logged-in user.
// GET /session
func (h *BankHandler) Session(w http.ResponseWriter, r *http.Request) {
	user, ok := h.service.CurrentUser()
	if !ok {
		h.respondWithError(w, util.ErrNotLoggedIn)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.AccountResponse{User: types.NewUserResponse(user)})
}

// AmountRequest represents the request body for deposit and withdraw.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Deposit handles the deposit money request.
// POST /deposit
func (h *BankHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidAmount)
		return
	}

	user, notice, err := h.service.Deposit(r.Context(), req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithAccount(w, http.StatusOK, user, notice)
}

// Withdraw handles the withdraw money request.
// POST /withdraw
func (h *BankHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidAmount)
		return
	}

	user, notice, err := h.service.Withdraw(r.Context(), req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithAccount(w, http.StatusOK, user, notice)
}

// Transfer handles all transfer variants.
// POST /transfers
func (h *BankHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	user, notice, err := h.service.Transfer(r.Context(), req)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithAccount(w, http.StatusOK, user, notice)
}

// GetTransactionHistory handles the get transaction history request.
// GET /transactions
func (h *BankHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters for pagination
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10 // Default limit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0 // Default offset
	}

	transactions, total, err := h.service.GetTransactionHistory(r.Context(), limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// Notification returns the latest notification, or 204 when none is live.
// GET /notification
func (h *BankHandler) Notification(w http.ResponseWriter, r *http.Request) {
	n, ok := h.service.Notification()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewNotificationResponse(n, h.now()))
}
