package testutil

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sentrabank/sentra-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Credentials every fixture is seeded with. MinCost keeps the hashing
// fast enough for test loops.
const (
	TestPIN      = "123456"
	TestPassword = "password123"
)

var seededAccounts int

func SeedTestUser(t *testing.T, db *sql.DB, name, email string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, name, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SeedTestAccount(t *testing.T, db *sql.DB, name, phone string, balance int64) *domain.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPIN), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}

	seededAccounts++
	a := &domain.Account{
		ID:            uuid.New(),
		Name:          name,
		MothersName:   "Sri Wahyuni",
		Email:         fmt.Sprintf("%s@example.test", phone),
		PhoneNumber:   phone,
		AccountNumber: fmt.Sprintf("9%09d", seededAccounts),
		PINHash:       string(hash),
		Balance:       balance,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO accounts (
			id, name, mothers_name, email, phone_number,
			account_number, pin_hash, balance, version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.Name, a.MothersName, a.Email, a.PhoneNumber,
		a.AccountNumber, a.PINHash, a.Balance, a.Version, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test account %s: %v", phone, err)
	}
	return a
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}
