package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sentrabank/sentra-api/internal/domain"
	"github.com/sentrabank/sentra-api/internal/repository"
)

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type accountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByPhoneNumber(ctx context.Context, phone string) (*domain.Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	List(ctx context.Context, q repository.ListQuery) ([]domain.Account, error)
	Count(ctx context.Context, q repository.ListQuery) (int, error)
	Create(ctx context.Context, account *domain.Account) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error
	UpdatePhoneNumber(ctx context.Context, id uuid.UUID, phone string) error
	UpdatePIN(ctx context.Context, id uuid.UUID, pinHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, q repository.ListQuery) ([]domain.User, error)
	Count(ctx context.Context, q repository.ListQuery) (int, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, id uuid.UUID, name, email string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
