package domain

import (
	"time"

	"github.com/google/uuid"
)

// BalanceDirection selects whether a balance adjustment adds to or
// subtracts from an account.
type BalanceDirection string

const (
	BalanceDebit  BalanceDirection = "debit"
	BalanceCredit BalanceDirection = "credit"
)

func (d BalanceDirection) IsValid() bool {
	return d == BalanceDebit || d == BalanceCredit
}

// Account is a customer bank account. Balance is held in minor currency
// units. Version is bumped on every balance write and guards against
// lost updates from concurrent writers.
type Account struct {
	ID            uuid.UUID
	Name          string
	MothersName   string
	Email         string
	PhoneNumber   string
	AccountNumber string
	PINHash       string
	Balance       int64
	Version       int64
	CreatedAt     time.Time
}
