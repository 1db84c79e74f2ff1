package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPhoneNumberTaken   = errors.New("phone number already registered")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidDirection   = errors.New("invalid balance direction")
	ErrSelfTransfer       = errors.New("cannot transfer to own account")
	ErrRecipientNotFound  = errors.New("destination account not found")
	ErrVersionConflict    = errors.New("optimistic lock conflict")
	ErrInvalidPage        = errors.New("page_size and page_number must be positive")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)
