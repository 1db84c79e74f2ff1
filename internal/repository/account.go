package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sentrabank/sentra-api/internal/domain"
)

const accountColumns = `id, name, mothers_name, email, phone_number,
	account_number, pin_hash, balance, version, created_at`

// Columns listing endpoints may search or sort on. Everything else is
// rejected before query assembly.
var accountListColumns = map[string]string{
	"name":  "name",
	"email": "email",
}

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByPhoneNumber(ctx context.Context, phone string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE phone_number = $1`, phone,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByPhoneNumber: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByPhoneNumber: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByAccountNumber: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByAccountNumber: %w", err)
	}
	return a, nil
}

// List returns one page of accounts matching q. The substring match is
// case-sensitive (LIKE, not ILIKE) and the sort is made deterministic by
// a trailing id tiebreak.
func (r *AccountRepository) List(ctx context.Context, q ListQuery) ([]domain.Account, error) {
	order, err := orderClause(q.SortField, q.SortOrder, accountListColumns)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	searchCol, err := searchColumn(q.SearchField, accountListColumns)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	query := `SELECT ` + accountColumns + ` FROM accounts`
	args := []any{}
	if searchCol != "" {
		query += ` WHERE ` + searchCol + ` LIKE '%' || $1 || '%'`
		args = append(args, q.SearchKey)
	}
	query += ` ` + order
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return accounts, nil
}

// Count returns the number of accounts matching q's search filter,
// ignoring its page slice.
func (r *AccountRepository) Count(ctx context.Context, q ListQuery) (int, error) {
	searchCol, err := searchColumn(q.SearchField, accountListColumns)
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}

	query := `SELECT COUNT(*) FROM accounts`
	args := []any{}
	if searchCol != "" {
		query += ` WHERE ` + searchCol + ` LIKE '%' || $1 || '%'`
		args = append(args, q.SearchKey)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (
			id, name, mothers_name, email, phone_number,
			account_number, pin_hash, balance, version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		account.ID, account.Name, account.MothersName, account.Email,
		account.PhoneNumber, account.AccountNumber, account.PINHash,
		account.Balance, account.Version, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

// UpdateBalance writes a new balance guarded by the previous version.
// Zero rows affected means another writer got there first.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1, version = $2 WHERE id = $3 AND version = $4`,
		newBalance, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrVersionConflict)
	}
	return nil
}

func (r *AccountRepository) UpdatePhoneNumber(ctx context.Context, id uuid.UUID, phone string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET phone_number = $1 WHERE id = $2`, phone, id,
	)
	if err != nil {
		return fmt.Errorf("UpdatePhoneNumber: %w", err)
	}
	return requireRow(res, "UpdatePhoneNumber")
}

func (r *AccountRepository) UpdatePIN(ctx context.Context, id uuid.UUID, pinHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET pin_hash = $1 WHERE id = $2`, pinHash, id,
	)
	if err != nil {
		return fmt.Errorf("UpdatePIN: %w", err)
	}
	return requireRow(res, "UpdatePIN")
}

func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return requireRow(res, "Delete")
}

func requireRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.ID, &a.Name, &a.MothersName, &a.Email, &a.PhoneNumber,
		&a.AccountNumber, &a.PINHash, &a.Balance, &a.Version, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
