// internal/service/bank_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"securebank/internal/auth"
	"securebank/internal/domain"
	"securebank/internal/ledger"
	"securebank/internal/metrics"
	"securebank/internal/util"

	"github.com/shopspring/decimal"
)

// Notification messages shown to the user.
const (
	msgRegistered        = "Account created successfully! Welcome bonus: $1000"
	msgDuplicateUsername = "Username already exists"
	msgInvalidInput      = "Please fill in all required fields"
	msgPasswordTooLong   = "Password is too long"
	msgInvalidCreds      = "Invalid credentials"
	msgLoggedOut         = "Logged out successfully"
	msgNotLoggedIn       = "Please log in first"
	msgInvalidAmount     = "Invalid amount"
	msgInsufficientFunds = "Insufficient funds"
	msgRecipientNotFound = "Recipient account not found"
	msgSelfTransfer      = "Cannot transfer to your own account"
	msgUnknownTransfer   = "Unsupported transfer type"
	msgInternalError     = "Something went wrong, please try again"
)

// Ledger is the subset of *ledger.Store the facade depends on.
type Ledger interface {
	FindByUsername(username string) (domain.User, bool)
	FindByAccountNumber(accountNumber string) (domain.User, bool)
	CreateAccount(ctx context.Context, profile domain.Profile) (domain.User, error)
	ApplyTransaction(ctx context.Context, accountID string, delta decimal.Decimal, description string, ann domain.Annotations) (domain.User, error)
	ApplyPostings(ctx context.Context, postings ...ledger.Posting) ([]domain.User, error)
	SetSession(ctx context.Context, user *domain.User) error
	Session() (domain.User, bool)
}

// BankService defines the user-facing operations of the bank.
// Every call leaves exactly one notification behind. Mutating verbs also
// return the notification of their own success, so callers never have to
// read the shared latest one.
type BankService interface {
	Register(ctx context.Context, profile domain.Profile) (*domain.User, domain.Notification, error)
	Login(ctx context.Context, username, password string) (*domain.User, domain.Notification, error)
	Logout(ctx context.Context) (domain.Notification, error)
	Deposit(ctx context.Context, amount decimal.Decimal) (*domain.User, domain.Notification, error)
	Withdraw(ctx context.Context, amount decimal.Decimal) (*domain.User, domain.Notification, error)
	Transfer(ctx context.Context, req domain.TransferRequest) (*domain.User, domain.Notification, error)
	CurrentUser() (*domain.User, bool)
	GetTransactionHistory(ctx context.Context, limit, offset int) ([]domain.Transaction, int64, error)
	Notification() (domain.Notification, bool)
}

// bankService implements the BankService interface.
type bankService struct {
	mu       sync.Mutex // one verb at a time
	ledger   Ledger
	checker  auth.CredentialChecker
	recorder metrics.Recorder
	logger   *slog.Logger

	ttl    time.Duration
	now    func() time.Time
	noteMu sync.Mutex
	note   *domain.Notification
}

// Option configures the bank service.
type Option func(*bankService)

// WithNotificationTTL sets how long a notification stays valid.
func WithNotificationTTL(ttl time.Duration) Option {
	return func(s *bankService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now; used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *bankService) { s.now = now }
}

// NewBankService creates a new instance of BankService.
func NewBankService(
	l Ledger,
	checker auth.CredentialChecker,
	recorder metrics.Recorder,
	logger *slog.Logger,
	opts ...Option,
) BankService {
	if checker == nil {
		checker = auth.PlainChecker{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &bankService{
		ledger:   l,
		checker:  checker,
		recorder: recorder,
		logger:   logger,
		ttl:      domain.DefaultNotificationTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register opens a new account. It does not log the user in.
func (s *bankService) Register(ctx context.Context, profile domain.Profile) (*domain.User, domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(profile.Username) == "" || profile.Password == "" {
		return nil, domain.Notification{}, s.fail("register", msgInvalidInput, util.ErrInvalidInput)
	}

	stored, err := s.checker.Hash(profile.Password)
	if err != nil {
		if util.IsError(err, util.ErrPasswordTooLong) {
			return nil, domain.Notification{}, s.fail("register", msgPasswordTooLong, err)
		}
		return nil, domain.Notification{}, s.internalError(ctx, "register", err)
	}
	profile.Password = stored

	user, err := s.ledger.CreateAccount(ctx, profile)
	if err != nil {
		if util.IsError(err, util.ErrDuplicateUsername) {
			return nil, domain.Notification{}, s.fail("register", msgDuplicateUsername, err)
		}
		return nil, domain.Notification{}, s.internalError(ctx, "register", err)
	}

	s.logger.InfoContext(ctx, "Account registered", "user_id", user.ID, "account_number", user.AccountNumber)
	n := s.succeed("register", msgRegistered)
	return publicUser(user), n, nil
}

// Login starts a session. Unknown usernames and wrong passwords are
// reported identically.
func (s *bankService) Login(ctx context.Context, username, password string) (*domain.User, domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.ledger.FindByUsername(username)
	if !ok || !s.checker.Verify(user.Password, password) {
		return nil, domain.Notification{}, s.fail("login", msgInvalidCreds, util.ErrInvalidCredentials)
	}

	if err := s.ledger.SetSession(ctx, &user); err != nil {
		return nil, domain.Notification{}, s.internalError(ctx, "login", err)
	}

	s.logger.InfoContext(ctx, "User logged in", "user_id", user.ID)
	n := s.succeed("login", fmt.Sprintf("Welcome back, %s!", user.FullName))
	return publicUser(user), n, nil
}

// Logout clears the session. It is safe to call when nobody is logged in.
func (s *bankService) Logout(ctx context.Context) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.SetSession(ctx, nil); err != nil {
		return domain.Notification{}, s.internalError(ctx, "logout", err)
	}
	return s.succeed("logout", msgLoggedOut), nil
}

// Deposit credits the session user.
func (s *bankService) Deposit(ctx context.Context, amount decimal.Decimal) (*domain.User, domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.requireSession("deposit")
	if err != nil {
		return nil, domain.Notification{}, err
	}
	if !amount.IsPositive() {
		return nil, domain.Notification{}, s.fail("deposit", msgInvalidAmount, util.ErrInvalidAmount)
	}

	updated, err := s.ledger.ApplyTransaction(ctx, current.ID, amount, "Deposit", domain.Annotations{})
	if err != nil {
		return nil, domain.Notification{}, s.internalError(ctx, "deposit", err)
	}

	n := s.succeed("deposit", fmt.Sprintf("Successfully deposited $%s", amount.StringFixed(2)))
	return publicUser(updated), n, nil
}

// Withdraw debits the session user. Overdrafts are rejected before any change.
func (s *bankService) Withdraw(ctx context.Context, amount decimal.Decimal) (*domain.User, domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.requireSession("withdraw")
	if err != nil {
		return nil, domain.Notification{}, err
	}
	if err := s.checkDebit("withdraw", current, amount); err != nil {
		return nil, domain.Notification{}, err
	}

	updated, err := s.ledger.ApplyTransaction(ctx, current.ID, amount.Neg(), "Withdrawal", domain.Annotations{})
	if err != nil {
		return nil, domain.Notification{}, s.internalError(ctx, "withdraw", err)
	}

	n := s.succeed("withdraw", fmt.Sprintf("Successfully withdrew $%s", amount.StringFixed(2)))
	return publicUser(updated), n, nil
}

// Transfer moves money out of the session user's account. Only internal
// transfers touch a second account.
func (s *bankService) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.User, domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.requireSession("transfer")
	if err != nil {
		return nil, domain.Notification{}, err
	}
	if err := s.checkDebit("transfer", current, req.Amount); err != nil {
		return nil, domain.Notification{}, err
	}
	if !req.Kind.Valid() {
		return nil, domain.Notification{}, s.fail("transfer", msgUnknownTransfer, util.ErrInvalidInput)
	}

	var updated domain.User
	switch req.Kind {
	case domain.TransferKindInternal:
		recipient, ok := s.ledger.FindByAccountNumber(req.Recipient)
		if !ok {
			return nil, domain.Notification{}, s.fail("transfer", msgRecipientNotFound, util.ErrRecipientNotFound)
		}
		if recipient.ID == current.ID {
			return nil, domain.Notification{}, s.fail("transfer", msgSelfTransfer, util.ErrSelfTransfer)
		}
		users, err := s.ledger.ApplyPostings(ctx,
			ledger.Posting{
				AccountID:   current.ID,
				Delta:       req.Amount.Neg(),
				Description: "Transfer to " + recipient.AccountNumber,
				Annotations: domain.Annotations{To: recipient.AccountNumber},
			},
			ledger.Posting{
				AccountID:   recipient.ID,
				Delta:       req.Amount,
				Description: "Transfer from " + current.AccountNumber,
				Annotations: domain.Annotations{From: current.AccountNumber},
			},
		)
		if err != nil {
			return nil, domain.Notification{}, s.internalError(ctx, "transfer", err)
		}
		updated = users[0]

	case domain.TransferKindMobile:
		updated, err = s.ledger.ApplyTransaction(ctx, current.ID, req.Amount.Neg(),
			"Mobile Money to "+req.MobileNumber,
			domain.Annotations{MobileNumber: req.MobileNumber})
		if err != nil {
			return nil, domain.Notification{}, s.internalError(ctx, "transfer", err)
		}

	case domain.TransferKindInternational:
		updated, err = s.ledger.ApplyTransaction(ctx, current.ID, req.Amount.Neg(),
			"International transfer to "+req.Country,
			domain.Annotations{Country: req.Country, Recipient: req.Recipient})
		if err != nil {
			return nil, domain.Notification{}, s.internalError(ctx, "transfer", err)
		}
	}

	s.logger.InfoContext(ctx, "Transfer completed",
		"user_id", current.ID, "kind", req.Kind, "amount", req.Amount.String())
	n := s.succeed("transfer", fmt.Sprintf("Successfully transferred $%s", req.Amount.StringFixed(2)))
	return publicUser(updated), n, nil
}

// CurrentUser returns the session user, if any.
func (s *bankService) CurrentUser() (*domain.User, bool) {
	user, ok := s.ledger.Session()
	if !ok {
		return nil, false
	}
	return publicUser(user), true
}

// GetTransactionHistory returns a page of the session user's records,
// newest first, and the total number of records.
func (s *bankService) GetTransactionHistory(ctx context.Context, limit, offset int) ([]domain.Transaction, int64, error) {
	user, ok := s.ledger.Session()
	if !ok {
		return nil, 0, util.ErrNotLoggedIn
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	total := len(user.Transactions)
	if offset >= total {
		return []domain.Transaction{}, int64(total), nil
	}
	end := min(offset+limit, total)
	return user.Transactions[offset:end], int64(total), nil
}

// Notification returns the latest notification while it is still valid.
func (s *bankService) Notification() (domain.Notification, bool) {
	s.noteMu.Lock()
	defer s.noteMu.Unlock()
	if s.note == nil || s.note.Expired(s.now()) {
		return domain.Notification{}, false
	}
	return *s.note, true
}

func (s *bankService) requireSession(op string) (domain.User, error) {
	user, ok := s.ledger.Session()
	if !ok {
		return domain.User{}, s.fail(op, msgNotLoggedIn, util.ErrNotLoggedIn)
	}
	return user, nil
}

// checkDebit validates a debit of amount against user's balance.
func (s *bankService) checkDebit(op string, user domain.User, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return s.fail(op, msgInvalidAmount, util.ErrInvalidAmount)
	}
	if amount.GreaterThan(user.Balance) {
		return s.fail(op, msgInsufficientFunds, util.ErrInsufficientFunds)
	}
	return nil
}

func (s *bankService) notify(message string, typ domain.NotificationType) domain.Notification {
	n := domain.NewNotification(message, typ, s.now(), s.ttl)
	s.noteMu.Lock()
	s.note = &n
	s.noteMu.Unlock()
	return n
}

func (s *bankService) succeed(op, message string) domain.Notification {
	s.recorder.Operation(op, metrics.OutcomeSuccess)
	return s.notify(message, domain.NotificationSuccess)
}

// fail records a business-rule rejection and returns err unchanged.
func (s *bankService) fail(op, message string, err error) error {
	s.recorder.Operation(op, metrics.OutcomeFailure)
	s.notify(message, domain.NotificationError)
	return err
}

func (s *bankService) internalError(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "Operation failed", "operation", op, "error", err)
	s.recorder.Operation(op, metrics.OutcomeFailure)
	s.notify(msgInternalError, domain.NotificationError)
	return fmt.Errorf("%s: %w", op, err)
}

func publicUser(u domain.User) *domain.User {
	p := u.Public()
	return &p
}
