package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sentrabank/sentra-api/internal/domain"
	"github.com/sentrabank/sentra-api/internal/logging"
	"github.com/sentrabank/sentra-api/internal/secret"
)

// Fresh random account numbers are re-drawn on collision this many times
// before giving up; the unique index on account_number is the backstop.
const accountNumberAttempts = 5

var accountSearchFields = []string{"name"}

type AccountService struct {
	db       txBeginner
	accounts accountRepository
}

func NewAccountService(db txBeginner, accounts accountRepository) *AccountService {
	return &AccountService{db: db, accounts: accounts}
}

type RegisterParams struct {
	Name        string
	MothersName string
	Email       string
	PhoneNumber string
	PIN         string
}

// Register creates an account with a hashed PIN, a fresh 10-digit account
// number and a zero balance. The phone number must not already be
// registered.
func (s *AccountService) Register(ctx context.Context, p RegisterParams) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	_, err := s.accounts.GetByPhoneNumber(ctx, p.PhoneNumber)
	if err == nil {
		return nil, fmt.Errorf("Register: %w", domain.ErrPhoneNumberTaken)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("Register: check phone: %w", err)
	}

	pinHash, err := secret.HashPIN(p.PIN)
	if err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	acctNum, err := s.freshAccountNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	account := &domain.Account{
		ID:            uuid.New(),
		Name:          p.Name,
		MothersName:   p.MothersName,
		Email:         p.Email,
		PhoneNumber:   p.PhoneNumber,
		AccountNumber: acctNum,
		PINHash:       pinHash,
		Balance:       0,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	log.Info("account registered",
		"account_id", account.ID,
		"phone_number", account.PhoneNumber,
	)

	return account, nil
}

// VerifyPIN checks the supplied PIN against the stored hash. A missing
// account and a wrong PIN are indistinguishable to the caller.
func (s *AccountService) VerifyPIN(ctx context.Context, id uuid.UUID, pin string) error {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("VerifyPIN: %w", domain.ErrInvalidCredentials)
		}
		return fmt.Errorf("VerifyPIN: %w", err)
	}
	if !secret.Matches(account.PINHash, pin) {
		return fmt.Errorf("VerifyPIN: %w", domain.ErrInvalidCredentials)
	}
	return nil
}

// VerifyMothersName is the secondary knowledge factor for PIN changes.
// Exact, case-sensitive match; fails closed for a missing account just
// like VerifyPIN.
func (s *AccountService) VerifyMothersName(ctx context.Context, id uuid.UUID, name string) error {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("VerifyMothersName: %w", domain.ErrInvalidCredentials)
		}
		return fmt.Errorf("VerifyMothersName: %w", err)
	}
	if account.MothersName != name {
		return fmt.Errorf("VerifyMothersName: %w", domain.ErrInvalidCredentials)
	}
	return nil
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

func (s *AccountService) GetBalance(ctx context.Context, id uuid.UUID) (int64, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("GetBalance: %w", err)
	}
	return account.Balance, nil
}

// AdjustBalance applies a single credit or debit atomically: the row is
// locked for the duration and the write is version-guarded. A debit that
// would take the balance below zero fails with ErrInsufficientFunds.
// Returns the resulting balance.
func (s *AccountService) AdjustBalance(ctx context.Context, id uuid.UUID, direction domain.BalanceDirection, amount int64) (int64, error) {
	if !direction.IsValid() {
		return 0, fmt.Errorf("AdjustBalance: %w", domain.ErrInvalidDirection)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("AdjustBalance: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("AdjustBalance: begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accounts.GetForUpdate(ctx, tx, id)
	if err != nil {
		return 0, fmt.Errorf("AdjustBalance: %w", err)
	}

	newBalance := account.Balance + amount
	if direction == domain.BalanceDebit {
		newBalance = account.Balance - amount
	}
	if newBalance < 0 {
		return 0, fmt.Errorf("AdjustBalance: %w", domain.ErrInsufficientFunds)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, id, newBalance, account.Version+1); err != nil {
		return 0, fmt.Errorf("AdjustBalance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("AdjustBalance: commit: %w", err)
	}
	return newBalance, nil
}

// Topup credits the account after PIN verification.
func (s *AccountService) Topup(ctx context.Context, id uuid.UUID, pin string, amount int64) (int64, error) {
	if err := s.VerifyPIN(ctx, id, pin); err != nil {
		return 0, fmt.Errorf("Topup: %w", err)
	}

	balance, err := s.AdjustBalance(ctx, id, domain.BalanceCredit, amount)
	if err != nil {
		return 0, fmt.Errorf("Topup: %w", err)
	}

	logging.FromContext(ctx).Info("topup applied",
		"account_id", id,
		"amount", amount,
	)
	return balance, nil
}

// Transfer moves amount from the source account to the account holding
// destAccountNumber. Debit and credit happen in one transaction: both
// rows are locked in deterministic id order, funds are checked under the
// lock, and both writes are version-guarded. Returns the destination
// account as read inside the transaction.
func (s *AccountService) Transfer(ctx context.Context, sourceID uuid.UUID, destAccountNumber, pin string, amount int64) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrInvalidAmount)
	}
	if err := s.VerifyPIN(ctx, sourceID, pin); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	dest, err := s.accounts.GetByAccountNumber(ctx, destAccountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Transfer: %w", domain.ErrRecipientNotFound)
		}
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if dest.ID == sourceID {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrSelfTransfer)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Transfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, sourceID, dest.ID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	source, destination := locked[sourceID], locked[dest.ID]

	if source.Balance < amount {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrInsufficientFunds)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, source.ID, source.Balance-amount, source.Version+1); err != nil {
		return nil, fmt.Errorf("Transfer: debit source: %w", err)
	}
	if err := s.accounts.UpdateBalance(ctx, tx, destination.ID, destination.Balance+amount, destination.Version+1); err != nil {
		return nil, fmt.Errorf("Transfer: credit destination: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Transfer: commit: %w", err)
	}

	log.Info("transfer completed",
		"source_account", source.ID,
		"destination_account", destination.ID,
		"destination_number", destination.AccountNumber,
		"amount", amount,
	)

	return destination, nil
}

// UpdatePhoneNumber changes the login phone number after PIN verification.
// Uniqueness is re-checked here, not only at registration.
func (s *AccountService) UpdatePhoneNumber(ctx context.Context, id uuid.UUID, pin, phone string) error {
	if err := s.VerifyPIN(ctx, id, pin); err != nil {
		return fmt.Errorf("UpdatePhoneNumber: %w", err)
	}

	existing, err := s.accounts.GetByPhoneNumber(ctx, phone)
	if err == nil && existing.ID != id {
		return fmt.Errorf("UpdatePhoneNumber: %w", domain.ErrPhoneNumberTaken)
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("UpdatePhoneNumber: check phone: %w", err)
	}

	if err := s.accounts.UpdatePhoneNumber(ctx, id, phone); err != nil {
		return fmt.Errorf("UpdatePhoneNumber: %w", err)
	}
	return nil
}

// ChangePIN requires both knowledge factors: the mother's name and the
// current PIN.
func (s *AccountService) ChangePIN(ctx context.Context, id uuid.UUID, mothersName, oldPIN, newPIN string) error {
	if err := s.VerifyMothersName(ctx, id, mothersName); err != nil {
		return fmt.Errorf("ChangePIN: %w", err)
	}
	if err := s.VerifyPIN(ctx, id, oldPIN); err != nil {
		return fmt.Errorf("ChangePIN: %w", err)
	}

	pinHash, err := secret.HashPIN(newPIN)
	if err != nil {
		return fmt.Errorf("ChangePIN: %w", err)
	}
	if err := s.accounts.UpdatePIN(ctx, id, pinHash); err != nil {
		return fmt.Errorf("ChangePIN: %w", err)
	}

	logging.FromContext(ctx).Info("pin changed", "account_id", id)
	return nil
}

func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// List composes search, sort and pagination over accounts.
func (s *AccountService) List(ctx context.Context, p ListParams) (*Page[domain.Account], error) {
	q, pageSize, pageNumber, err := buildListQuery(p, accountSearchFields)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	count, err := s.accounts.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	accounts, err := s.accounts.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	page := newPage(accounts, count, pageSize, pageNumber)
	return &page, nil
}

func (s *AccountService) freshAccountNumber(ctx context.Context) (string, error) {
	for range accountNumberAttempts {
		num, err := generateAccountNumber()
		if err != nil {
			return "", err
		}
		_, err = s.accounts.GetByAccountNumber(ctx, num)
		if errors.Is(err, domain.ErrNotFound) {
			return num, nil
		}
		if err != nil {
			return "", fmt.Errorf("freshAccountNumber: %w", err)
		}
	}
	return "", fmt.Errorf("freshAccountNumber: gave up after %d collisions", accountNumberAttempts)
}

func generateAccountNumber() (string, error) {
	digits := make([]byte, 10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generateAccountNumber: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}

// lockAccountsInOrder acquires FOR UPDATE locks on every id in a fixed
// global order so two concurrent transfers touching the same pair cannot
// deadlock.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepository, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}
