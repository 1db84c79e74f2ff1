package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sentrabank/sentra-api/internal/domain"
	"github.com/sentrabank/sentra-api/internal/logging"
	"github.com/sentrabank/sentra-api/internal/service"
)

type userService interface {
	Create(ctx context.Context, name, email, password string) (*domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, name, email string) error
	ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, p service.ListParams) (*service.Page[domain.User], error)
}

type UserHandler struct {
	users userService
}

func NewUserHandler(users userService) *UserHandler {
	return &UserHandler{users: users}
}

type userDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

type createUserRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (r createUserRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	if r.Password != r.PasswordConfirm {
		errs = append(errs, FieldError{Field: "password_confirm", Message: "must match password"})
	}
	return errs
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create user", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toUserDTO(user))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	params, fields := listParamsFromQuery(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	page, err := h.users.List(r.Context(), params)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list users", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]userDTO, len(page.Data))
	for i := range page.Data {
		dtos[i] = toUserDTO(&page.Data[i])
	}
	RespondSuccess(w, http.StatusOK, newListEnvelope(page, dtos))
}

type updateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r updateUserRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	return errs
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.users.Update(r.Context(), id, req.Name, req.Email); err != nil {
		logging.FromContext(r.Context()).Error("failed to update user", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"id": id})
}

type changePasswordRequest struct {
	PasswordOld     string `json:"password_old"`
	PasswordNew     string `json:"password_new"`
	PasswordConfirm string `json:"password_confirm"`
}

func (r changePasswordRequest) Validate() []FieldError {
	var errs []FieldError
	if r.PasswordOld == "" {
		errs = append(errs, FieldError{Field: "password_old", Message: "required"})
	}
	if r.PasswordNew == "" {
		errs = append(errs, FieldError{Field: "password_new", Message: "required"})
	}
	if r.PasswordNew != r.PasswordConfirm {
		errs = append(errs, FieldError{Field: "password_confirm", Message: "must match password_new"})
	}
	return errs
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.users.ChangePassword(r.Context(), id, req.PasswordOld, req.PasswordNew); err != nil {
		logging.FromContext(r.Context()).Error("password change failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"id": id})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"id": id})
}
