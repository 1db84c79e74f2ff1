package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sentrabank/sentra-api/internal/domain"
	"github.com/sentrabank/sentra-api/internal/logging"
	"github.com/sentrabank/sentra-api/internal/service"
)

type accountService interface {
	Register(ctx context.Context, p service.RegisterParams) (*domain.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Topup(ctx context.Context, id uuid.UUID, pin string, amount int64) (int64, error)
	Transfer(ctx context.Context, sourceID uuid.UUID, destAccountNumber, pin string, amount int64) (*domain.Account, error)
	UpdatePhoneNumber(ctx context.Context, id uuid.UUID, pin, phone string) error
	ChangePIN(ctx context.Context, id uuid.UUID, mothersName, oldPIN, newPIN string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, p service.ListParams) (*service.Page[domain.Account], error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

var pinPattern = regexp.MustCompile(`^\d{6}$`)

type createAccountRequest struct {
	Name        string `json:"name"`
	MothersName string `json:"mothers_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	PIN         string `json:"pin"`
	PINConfirm  string `json:"pin_confirm"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.MothersName == "" {
		errs = append(errs, FieldError{Field: "mothers_name", Message: "required"})
	}
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.PhoneNumber == "" {
		errs = append(errs, FieldError{Field: "phone_number", Message: "required"})
	}
	if !pinPattern.MatchString(r.PIN) {
		errs = append(errs, FieldError{Field: "pin", Message: "must be exactly 6 digits"})
	}
	if r.PIN != r.PINConfirm {
		errs = append(errs, FieldError{Field: "pin_confirm", Message: "must match pin"})
	}
	return errs
}

type accountDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PhoneNumber   string    `json:"phone_number"`
	AccountNumber string    `json:"account_number"`
	Balance       int64     `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		PhoneNumber:   a.PhoneNumber,
		AccountNumber: a.AccountNumber,
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
	}
}

// accountSummaryDTO is the listing shape: no contact or balance details.
type accountSummaryDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.Register(r.Context(), service.RegisterParams{
		Name:        req.Name,
		MothersName: req.MothersName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		PIN:         req.PIN,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to register account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, map[string]string{
		"name":         account.Name,
		"phone_number": account.PhoneNumber,
	})
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	params, fields := listParamsFromQuery(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	page, err := h.accounts.List(r.Context(), params)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountSummaryDTO, len(page.Data))
	for i := range page.Data {
		dtos[i] = accountSummaryDTO{
			ID:    page.Data[i].ID,
			Name:  page.Data[i].Name,
			Email: page.Data[i].Email,
		}
	}
	RespondSuccess(w, http.StatusOK, newListEnvelope(page, dtos))
}

type transferRequest struct {
	PIN                string `json:"pin"`
	DestinationAccount string `json:"destination_account"`
	Amount             int64  `json:"amount"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if r.PIN == "" {
		errs = append(errs, FieldError{Field: "pin", Message: "required"})
	}
	if r.DestinationAccount == "" {
		errs = append(errs, FieldError{Field: "destination_account", Message: "required"})
	}
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	return errs
}

func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	dest, err := h.accounts.Transfer(r.Context(), id, req.DestinationAccount, req.PIN, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Error("transfer failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{
		"destination_account": dest.AccountNumber,
	})
}

type topupRequest struct {
	PIN    string `json:"pin"`
	Amount int64  `json:"amount"`
}

func (r topupRequest) Validate() []FieldError {
	var errs []FieldError
	if r.PIN == "" {
		errs = append(errs, FieldError{Field: "pin", Message: "required"})
	}
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	return errs
}

func (h *AccountHandler) Topup(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req topupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	balance, err := h.accounts.Topup(r.Context(), id, req.PIN, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Error("topup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"id":      id,
		"balance": balance,
	})
}

type changePinRequest struct {
	MothersName string `json:"mothers_name"`
	PINOld      string `json:"pin_old"`
	PINNew      string `json:"pin_new"`
	PINConfirm  string `json:"pin_confirm"`
}

func (r changePinRequest) Validate() []FieldError {
	var errs []FieldError
	if r.MothersName == "" {
		errs = append(errs, FieldError{Field: "mothers_name", Message: "required"})
	}
	if r.PINOld == "" {
		errs = append(errs, FieldError{Field: "pin_old", Message: "required"})
	}
	if !pinPattern.MatchString(r.PINNew) {
		errs = append(errs, FieldError{Field: "pin_new", Message: "must be exactly 6 digits"})
	}
	if r.PINNew != r.PINConfirm {
		errs = append(errs, FieldError{Field: "pin_confirm", Message: "must match pin_new"})
	}
	return errs
}

func (h *AccountHandler) ChangePin(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req changePinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.accounts.ChangePIN(r.Context(), id, req.MothersName, req.PINOld, req.PINNew); err != nil {
		logging.FromContext(r.Context()).Error("pin change failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"id": id})
}

type updatePhoneRequest struct {
	PIN         string `json:"pin"`
	PhoneNumber string `json:"phone_number"`
}

func (r updatePhoneRequest) Validate() []FieldError {
	var errs []FieldError
	if r.PIN == "" {
		errs = append(errs, FieldError{Field: "pin", Message: "required"})
	}
	if r.PhoneNumber == "" {
		errs = append(errs, FieldError{Field: "phone_number", Message: "required"})
	}
	return errs
}

func (h *AccountHandler) UpdatePhoneNumber(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updatePhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.accounts.UpdatePhoneNumber(r.Context(), id, req.PIN, req.PhoneNumber); err != nil {
		logging.FromContext(r.Context()).Error("phone number update failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"id": id})
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.accounts.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"id": id})
}

func idFromPath(r *http.Request) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}
