// internal/ledger/store.go

// Package ledger holds the authoritative collection of accounts and the
// current session, and applies every balance mutation.
//
// All methods are serialized by one mutex. A mutation first builds the
// new state, then persists the whole snapshot; if the write fails the
// previous in-memory state is restored, so memory and storage never
// diverge and no caller sees a half-applied change.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"securebank/internal/domain"
	"securebank/internal/repository"
	"securebank/internal/util"
)

// DefaultAccountNumberAttempts bounds the uniqueness retry loop in CreateAccount.
const DefaultAccountNumberAttempts = 16

// Posting is one balance change to apply to one account.
// A positive Delta is recorded as a credit, a negative one as a debit.
type Posting struct {
	AccountID   string
	Delta       decimal.Decimal
	Description string
	Annotations domain.Annotations
}

// Store is the in-memory ledger backed by a SnapshotRepository.
type Store struct {
	mu        sync.Mutex
	repo      repository.SnapshotRepository
	logger    *slog.Logger
	users     []domain.User
	sessionID string

	newAccountNumber func() string
	maxAttempts      int
}

// Option configures a Store.
type Option func(*Store)

// WithAccountNumberGenerator replaces the random account number source.
func WithAccountNumberGenerator(gen func() string) Option {
	return func(s *Store) { s.newAccountNumber = gen }
}

// WithAccountNumberAttempts sets how many candidates CreateAccount tries.
func WithAccountNumberAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewStore creates an empty Store. Call Load to rehydrate persisted state.
func NewStore(repo repository.SnapshotRepository, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		repo:             repo,
		logger:           logger,
		users:            []domain.User{},
		newAccountNumber: domain.NewAccountNumber,
		maxAttempts:      DefaultAccountNumberAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with the persisted snapshot.
// A persisted session that no longer matches an account is dropped.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("ledger load: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = snap.Users
	if s.users == nil {
		s.users = []domain.User{}
	}
	s.sessionID = ""
	if snap.CurrentUser != nil {
		if s.indexByID(snap.CurrentUser.ID) >= 0 {
			s.sessionID = snap.CurrentUser.ID
		} else {
			s.logger.Warn("Dropping persisted session for unknown account", "user_id", snap.CurrentUser.ID)
		}
	}
	s.logger.Info("Ledger loaded", "accounts", len(s.users), "session", s.sessionID != "")
	return nil
}

// FindByUsername returns the account with exactly this username.
func (s *Store) FindByUsername(username string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u.Clone(), true
		}
	}
	return domain.User{}, false
}

// FindByAccountNumber returns the account with exactly this account number.
func (s *Store) FindByAccountNumber(accountNumber string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexByAccountNumber(accountNumber); i >= 0 {
		return s.users[i].Clone(), true
	}
	return domain.User{}, false
}

// FindByID returns the account with this id.
func (s *Store) FindByID(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexByID(id); i >= 0 {
		return s.users[i].Clone(), true
	}
	return domain.User{}, false
}

// CreateAccount opens a new account seeded with the welcome bonus.
// profile.Password is stored as given.
func (s *Store) CreateAccount(ctx context.Context, profile domain.Profile) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == profile.Username {
			return domain.User{}, util.ErrDuplicateUsername
		}
	}

	accountNumber, err := s.uniqueAccountNumber()
	if err != nil {
		return domain.User{}, err
	}

	user := domain.NewUser(profile, accountNumber)
	prev := s.users
	s.users = append(slices.Clone(s.users), *user)

	if err := s.persist(ctx); err != nil {
		s.users = prev
		return domain.User{}, fmt.Errorf("create account: %w", err)
	}

	s.logger.Debug("Account created", "user_id", user.ID, "account_number", user.AccountNumber)
	return user.Clone(), nil
}

// ApplyTransaction changes one account's balance by delta and prepends
// the matching record. If the account is the session user, the session
// sees the new state as well.
func (s *Store) ApplyTransaction(ctx context.Context, accountID string, delta decimal.Decimal, description string, ann domain.Annotations) (domain.User, error) {
	updated, err := s.ApplyPostings(ctx, Posting{
		AccountID:   accountID,
		Delta:       delta,
		Description: description,
		Annotations: ann,
	})
	if err != nil {
		return domain.User{}, err
	}
	return updated[0], nil
}

// ApplyPostings applies every posting and persists once. Either all
// postings take effect or none do. The returned users are in posting order.
func (s *Store) ApplyPostings(ctx context.Context, postings ...Posting) ([]domain.User, error) {
	if len(postings) == 0 {
		return nil, util.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.users)
	touched := make([]int, len(postings))
	for i, p := range postings {
		if p.Delta.IsZero() {
			return nil, util.ErrInvalidAmount
		}
		idx := indexByID(next, p.AccountID)
		if idx < 0 {
			return nil, fmt.Errorf("apply transaction to %s: %w", p.AccountID, util.ErrAccountNotFound)
		}

		txType := domain.TransactionTypeCredit
		if p.Delta.IsNegative() {
			txType = domain.TransactionTypeDebit
		}
		record := domain.NewTransaction(txType, p.Delta, p.Description, p.Annotations)

		u := next[idx]
		u.Balance = u.Balance.Add(p.Delta)
		u.Transactions = append([]domain.Transaction{*record}, u.Transactions...)
		next[idx] = u
		touched[i] = idx
	}

	prev := s.users
	s.users = next
	if err := s.persist(ctx); err != nil {
		s.users = prev
		return nil, fmt.Errorf("apply transaction: %w", err)
	}

	out := make([]domain.User, len(touched))
	for i, idx := range touched {
		out[i] = s.users[idx].Clone()
	}
	return out, nil
}

// SetSession makes user the current session, or clears it when user is nil.
// The user must already be in the collection.
func (s *Store) SetSession(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ""
	if user != nil {
		if s.indexByID(user.ID) < 0 {
			return fmt.Errorf("set session: %w", util.ErrAccountNotFound)
		}
		id = user.ID
	}

	prev := s.sessionID
	s.sessionID = id
	if err := s.persist(ctx); err != nil {
		s.sessionID = prev
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Session returns the current session user.
func (s *Store) Session() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID == "" {
		return domain.User{}, false
	}
	i := s.indexByID(s.sessionID)
	if i < 0 {
		return domain.User{}, false
	}
	return s.users[i].Clone(), true
}

// Users returns a copy of every account in registration order.
func (s *Store) Users() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, len(s.users))
	for i, u := range s.users {
		out[i] = u.Clone()
	}
	return out
}

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{Users: make([]domain.User, len(s.users))}
	for i, u := range s.users {
		snap.Users[i] = u.Clone()
	}
	if i := s.indexByID(s.sessionID); s.sessionID != "" && i >= 0 {
		current := s.users[i].Clone()
		snap.CurrentUser = &current
	}
	return snap
}

func (s *Store) persist(ctx context.Context) error {
	return s.repo.Save(ctx, s.snapshotLocked())
}

func (s *Store) uniqueAccountNumber() (string, error) {
	for range s.maxAttempts {
		candidate := s.newAccountNumber()
		if s.indexByAccountNumber(candidate) < 0 {
			return candidate, nil
		}
		s.logger.Warn("Account number collision, retrying", "account_number", candidate)
	}
	return "", util.ErrAccountNumberExhausted
}

func (s *Store) indexByID(id string) int {
	return indexByID(s.users, id)
}

func (s *Store) indexByAccountNumber(accountNumber string) int {
	return slices.IndexFunc(s.users, func(u domain.User) bool { return u.AccountNumber == accountNumber })
}

func indexByID(users []domain.User, id string) int {
	return slices.IndexFunc(users, func(u domain.User) bool { return u.ID == id })
}
