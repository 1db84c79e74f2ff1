package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentrabank/sentra-api/internal/domain"
	"github.com/sentrabank/sentra-api/internal/service"
)

type stubAccountService struct {
	account *domain.Account
	balance int64
	page    *service.Page[domain.Account]
	err     error
}

func (s *stubAccountService) Register(ctx context.Context, p service.RegisterParams) (*domain.Account, error) {
	return s.account, s.err
}

func (s *stubAccountService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.account, s.err
}

func (s *stubAccountService) Topup(ctx context.Context, id uuid.UUID, pin string, amount int64) (int64, error) {
	return s.balance, s.err
}

func (s *stubAccountService) Transfer(ctx context.Context, sourceID uuid.UUID, destAccountNumber, pin string, amount int64) (*domain.Account, error) {
	return s.account, s.err
}

func (s *stubAccountService) UpdatePhoneNumber(ctx context.Context, id uuid.UUID, pin, phone string) error {
	return s.err
}

func (s *stubAccountService) ChangePIN(ctx context.Context, id uuid.UUID, mothersName, oldPIN, newPIN string) error {
	return s.err
}

func (s *stubAccountService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.err
}

func (s *stubAccountService) List(ctx context.Context, p service.ListParams) (*service.Page[domain.Account], error) {
	return s.page, s.err
}

// serve routes the request through a mux so {id} path values resolve.
func serve(t *testing.T, pattern string, h http.HandlerFunc, method, target, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)

	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func TestCreateAccount_Success(t *testing.T) {
	account := &domain.Account{
		ID:          uuid.New(),
		Name:        "Alice",
		PhoneNumber: "081234567890",
		Balance:     0,
	}
	h := NewAccountHandler(&stubAccountService{account: account})

	body := `{
		"name": "Alice",
		"mothers_name": "Siti Aminah",
		"email": "alice@test.com",
		"phone_number": "081234567890",
		"pin": "123456",
		"pin_confirm": "123456"
	}`
	rec, resp := serve(t, "POST /accounts", h.Create, http.MethodPost, "/accounts", body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "Alice", data["name"])
	assert.Equal(t, "081234567890", data["phone_number"])
	// The creation response stays minimal: no id, balance or PIN material.
	assert.NotContains(t, data, "id")
	assert.NotContains(t, data, "pin")
}

func TestCreateAccount_Validation(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{})

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "pin too short",
			body:      `{"name":"A","mothers_name":"B","email":"a@b.c","phone_number":"0812","pin":"123","pin_confirm":"123"}`,
			wantField: "pin",
		},
		{
			name:      "pin not digits",
			body:      `{"name":"A","mothers_name":"B","email":"a@b.c","phone_number":"0812","pin":"abcdef","pin_confirm":"abcdef"}`,
			wantField: "pin",
		},
		{
			name:      "pin mismatch",
			body:      `{"name":"A","mothers_name":"B","email":"a@b.c","phone_number":"0812","pin":"123456","pin_confirm":"654321"}`,
			wantField: "pin_confirm",
		},
		{
			name:      "missing name",
			body:      `{"mothers_name":"B","email":"a@b.c","phone_number":"0812","pin":"123456","pin_confirm":"123456"}`,
			wantField: "name",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := serve(t, "POST /accounts", h.Create, http.MethodPost, "/accounts", tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)

			var fields []string
			for _, d := range resp.Error.Details.([]any) {
				fields = append(fields, d.(map[string]any)["field"].(string))
			}
			assert.Contains(t, fields, tc.wantField)
		})
	}
}

func TestGetAccount_BadID(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{})

	rec, resp := serve(t, "GET /accounts/{id}", h.Get, http.MethodGet, "/accounts/not-a-uuid", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RESOURCE_NOT_FOUND", resp.Error.Code)
}

func TestTransfer_ErrorMapping(t *testing.T) {
	id := uuid.NewString()
	body := `{"pin":"123456","destination_account":"9000000001","amount":500}`

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{"recipient not found", domain.ErrRecipientNotFound, http.StatusUnprocessableEntity, "RECIPIENT_NOT_FOUND"},
		{"self transfer", domain.ErrSelfTransfer, http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED"},
		{"wrong pin", domain.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"version conflict", domain.ErrVersionConflict, http.StatusConflict, "VERSION_CONFLICT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAccountHandler(&stubAccountService{err: tc.err})
			rec, resp := serve(t, "POST /accounts/{id}/transfer", h.Transfer,
				http.MethodPost, "/accounts/"+id+"/transfer", body)

			assert.Equal(t, tc.wantStatus, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestTransfer_Success(t *testing.T) {
	dest := &domain.Account{ID: uuid.New(), AccountNumber: "9000000001"}
	h := NewAccountHandler(&stubAccountService{account: dest})

	rec, resp := serve(t, "POST /accounts/{id}/transfer", h.Transfer,
		http.MethodPost, "/accounts/"+uuid.NewString()+"/transfer",
		`{"pin":"123456","destination_account":"9000000001","amount":500}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "9000000001", data["destination_account"])
}

func TestListAccounts_Envelope(t *testing.T) {
	page := &service.Page[domain.Account]{
		PageNumber:  1,
		PageSize:    10,
		Count:       2,
		TotalPages:  1,
		HasNextPage: false,
		Data: []domain.Account{
			{ID: uuid.New(), Name: "Alice", Email: "alice@test.com", Balance: 500},
			{ID: uuid.New(), Name: "Bob", Email: "bob@test.com", Balance: 100},
		},
	}
	h := NewAccountHandler(&stubAccountService{page: page})

	rec, resp := serve(t, "GET /accounts", h.List, http.MethodGet, "/accounts?search=name:A", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(1), data["page_number"])
	assert.Equal(t, float64(2), data["count"])
	assert.Equal(t, float64(1), data["total_pages"])

	items := data["data"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Alice", first["name"])
	// Listings expose the summary shape only.
	assert.NotContains(t, first, "balance")
	assert.NotContains(t, first, "phone_number")
}

func TestListAccounts_BadPaging(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{})

	rec, resp := serve(t, "GET /accounts", h.List, http.MethodGet, "/accounts?page_size=abc", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}
