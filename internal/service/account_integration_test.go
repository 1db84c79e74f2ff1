package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentrabank/sentra-api/internal/domain"
	"github.com/sentrabank/sentra-api/internal/repository"
	"github.com/sentrabank/sentra-api/internal/service"
	"github.com/sentrabank/sentra-api/internal/testutil"
)

func setupAccountService(t *testing.T, db *sql.DB) *service.AccountService {
	t.Helper()
	return service.NewAccountService(repository.NewDB(db), repository.NewAccountRepository(db))
}

func TestRegister_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	account, err := svc.Register(ctx, service.RegisterParams{
		Name:        "Alice",
		MothersName: "Siti Aminah",
		Email:       "alice@test.com",
		PhoneNumber: "081234567890",
		PIN:         "123456",
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice", account.Name)
	assert.Equal(t, int64(0), account.Balance)
	assert.Len(t, account.AccountNumber, 10)
	assert.NotEqual(t, "123456", account.PINHash)

	stored, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.AccountNumber, stored.AccountNumber)
}

func TestRegister_DuplicatePhoneNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	testutil.SeedTestAccount(t, db, "Alice", "081234567890", 0)

	_, err := svc.Register(ctx, service.RegisterParams{
		Name:        "Bob",
		MothersName: "Siti Aminah",
		Email:       "bob@test.com",
		PhoneNumber: "081234567890",
		PIN:         "123456",
	})
	assert.ErrorIs(t, err, domain.ErrPhoneNumberTaken)
}

func TestVerifyPIN(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	account := testutil.SeedTestAccount(t, db, "Alice", "081234567890", 0)

	assert.NoError(t, svc.VerifyPIN(ctx, account.ID, testutil.TestPIN))

	err := svc.VerifyPIN(ctx, account.ID, "000000")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// Missing account reads the same as a wrong PIN.
	err = svc.VerifyPIN(ctx, uuid.New(), testutil.TestPIN)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerifyMothersName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	account := testutil.SeedTestAccount(t, db, "Alice", "081234567890", 0)

	assert.NoError(t, svc.VerifyMothersName(ctx, account.ID, "Sri Wahyuni"))

	err := svc.VerifyMothersName(ctx, account.ID, "sri wahyuni")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "match is case-sensitive")
}

func TestAdjustBalance_RoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	account := testutil.SeedTestAccount(t, db, "Alice", "081234567890", 1000)

	balance, err := svc.AdjustBalance(ctx, account.ID, domain.BalanceCredit, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), balance)

	balance, err = svc.AdjustBalance(ctx, account.ID, domain.BalanceDebit, 1500)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	_, err = svc.AdjustBalance(ctx, account.ID, domain.BalanceDebit, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, int64(0), testutil.GetAccountBalance(t, db, account.ID))
}

func TestAdjustBalance_InvalidInputs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	account := testutil.SeedTestAccount(t, db, "Alice", "081234567890", 1000)

	_, err := svc.AdjustBalance(ctx, account.ID, domain.BalanceCredit, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.AdjustBalance(ctx, account.ID, domain.BalanceCredit, -100)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.AdjustBalance(ctx, account.ID, "sideways", 100)
	assert.ErrorIs(t, err, domain.ErrInvalidDirection)
}

func TestTopup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	account := testutil.SeedTestAccount(t, db, "Alice", "081234567890", 200)

	balance, err := svc.Topup(ctx, account.ID, testutil.TestPIN, 800)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	_, err = svc.Topup(ctx, account.ID, "000000", 800)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, int64(1000), testutil.GetAccountBalance(t, db, account.ID))
}

func TestTransfer_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	source := testutil.SeedTestAccount(t, db, "Alice", "081234567890", 10000)
	dest := testutil.SeedTestAccount(t, db, "Bob", "081234567891", 500)

	got, err := svc.Transfer(ctx, source.ID, dest.AccountNumber, testutil.TestPIN, 3000)
	require.NoError(t, err)
	assert.Equal(t, dest.ID, got.ID)

	assert.Equal(t, int64(7000), testutil.GetAccountBalance(t, db, source.ID))
	assert.Equal(t, int64(3500), testutil.GetAccountBalance(t, db, dest.ID))
}

func TestTransfer_Rejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	source := testutil.SeedTestAccount(t, db, "Alice", "081234567890", 1000)
	dest := testutil.SeedTestAccount(t, db, "Bob", "081234567891", 0)

	_, err := svc.Transfer(ctx, source.ID, dest.AccountNumber, testutil.TestPIN, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Transfer(ctx, source.ID, dest.AccountNumber, "000000", 100)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Transfer(ctx, source.ID, "0000000000", testutil.TestPIN, 100)
	assert.ErrorIs(t, err, domain.ErrRecipientNotFound)

	_, err = svc.Transfer(ctx, source.ID, source.AccountNumber, testutil.TestPIN, 100)
	assert.ErrorIs(t, err, domain.ErrSelfTransfer)

	_, err = svc.Transfer(ctx, source.ID, dest.AccountNumber, testutil.TestPIN, 5000)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Nothing moved.
	assert.Equal(t, int64(1000), testutil.GetAccountBalance(t, db, source.ID))
	assert.Equal(t, int64(0), testutil.GetAccountBalance(t, db, dest.ID))
}

func TestTransfer_ConcurrentOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	source := testutil.SeedTestAccount(t, db, "Alice", "081234567890", 10000)
	dest := testutil.SeedTestAccount(t, db, "Bob", "081234567891", 0)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(ctx, source.ID, dest.AccountNumber, testutil.TestPIN, 7000)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
			failures++
		}
	}

	assert.Equal(t, 1, successes, "exactly one transfer should succeed")
	assert.Equal(t, 1, failures, "exactly one transfer should fail")

	assert.Equal(t, int64(3000), testutil.GetAccountBalance(t, db, source.ID))
	assert.Equal(t, int64(7000), testutil.GetAccountBalance(t, db, dest.ID))
}

func TestUpdatePhoneNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	account := testutil.SeedTestAccount(t, db, "Alice", "081234567890", 0)
	other := testutil.SeedTestAccount(t, db, "Bob", "081234567891", 0)

	require.NoError(t, svc.UpdatePhoneNumber(ctx, account.ID, testutil.TestPIN, "081299999999"))

	updated, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "081299999999", updated.PhoneNumber)

	err = svc.UpdatePhoneNumber(ctx, account.ID, testutil.TestPIN, other.PhoneNumber)
	assert.ErrorIs(t, err, domain.ErrPhoneNumberTaken)

	err = svc.UpdatePhoneNumber(ctx, account.ID, "000000", "081288888888")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestChangePIN(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	account := testutil.SeedTestAccount(t, db, "Alice", "081234567890", 0)

	err := svc.ChangePIN(ctx, account.ID, "wrong name", testutil.TestPIN, "654321")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	err = svc.ChangePIN(ctx, account.ID, account.MothersName, "000000", "654321")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePIN(ctx, account.ID, account.MothersName, testutil.TestPIN, "654321"))

	assert.NoError(t, svc.VerifyPIN(ctx, account.ID, "654321"))
	assert.ErrorIs(t, svc.VerifyPIN(ctx, account.ID, testutil.TestPIN), domain.ErrInvalidCredentials)
}

func TestDeleteAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	account := testutil.SeedTestAccount(t, db, "Alice", "081234567890", 0)

	require.NoError(t, svc.Delete(ctx, account.ID))

	_, err := svc.GetAccount(ctx, account.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Delete(ctx, account.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	testutil.SeedTestAccount(t, db, "Bob", "081234567890", 0)
	testutil.SeedTestAccount(t, db, "Alice", "081234567891", 0)
	testutil.SeedTestAccount(t, db, "Carol", "081234567892", 0)

	page, err := svc.List(ctx, service.ListParams{Sort: "name:asc"})
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	assert.Equal(t, "Alice", page.Data[0].Name)
	assert.Equal(t, "Bob", page.Data[1].Name)
	assert.Equal(t, "Carol", page.Data[2].Name)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNextPage)

	page, err = svc.List(ctx, service.ListParams{Sort: "name:desc"})
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	assert.Equal(t, "Carol", page.Data[0].Name)

	page, err = svc.List(ctx, service.ListParams{Search: "name:Ali"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Alice", page.Data[0].Name)
	assert.Equal(t, 1, page.TotalPages, "total pages follow the filtered count")

	// Search is case-sensitive.
	page, err = svc.List(ctx, service.ListParams{Search: "name:ali"})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestListAccounts_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	for i := range 5 {
		testutil.SeedTestAccount(t, db, fmt.Sprintf("Holder %02d", i), fmt.Sprintf("0812345678%02d", i), 0)
	}

	page, err := svc.List(ctx, service.ListParams{PageSize: 2, PageNumber: 1})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.HasPreviousPage)
	assert.True(t, page.HasNextPage)

	page, err = svc.List(ctx, service.ListParams{PageSize: 2, PageNumber: 3})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.True(t, page.HasPreviousPage)
	assert.False(t, page.HasNextPage)

	_, err = svc.List(ctx, service.ListParams{PageNumber: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidPage)
}
