package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/store"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func defaultPage() utils.PaginationParams {
	return utils.NormalizePagination(utils.PaginationParams{})
}

func TestMemoryWalletStore(t *testing.T) {
	ctx := context.Background()
	wallets := store.NewMemoryWalletStore()

	created, err := wallets.Create(ctx, 1)
	require.NoError(t, err)
	assert.True(t, created.Balance.IsZero())

	_, err = wallets.Create(ctx, 1)
	assert.ErrorIs(t, err, models.ErrWalletAlreadyExists)

	_, err = wallets.Get(ctx, 2)
	assert.ErrorIs(t, err, models.ErrWalletNotFound)

	_, err = wallets.Credit(ctx, 2, money("1.00"))
	assert.ErrorIs(t, err, models.ErrWalletNotFound)

	_, err = wallets.Credit(ctx, 1, decimal.Zero)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	_, err = wallets.Debit(ctx, 1, money("-1.00"))
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	// no cap configured
	wallet, err := wallets.Credit(ctx, 1, money("5000.00"))
	require.NoError(t, err)
	assert.Equal(t, "5000.00", wallet.Balance.StringFixed(2))

	_, err = wallets.Debit(ctx, 1, money("5000.01"))
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	var domainErr *models.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, int64(1), domainErr.Details["owner_id"])

	wallet, err = wallets.Debit(ctx, 1, money("5000.00"))
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())

	byID, err := wallets.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byID.OwnerID)

	_, err = wallets.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrWalletNotFound)
}

func TestMemoryWalletStoreCreditCap(t *testing.T) {
	ctx := context.Background()
	wallets := store.NewMemoryWalletStore(store.WithCreditCap(money("10000.00")))

	_, err := wallets.Create(ctx, 1)
	require.NoError(t, err)

	_, err = wallets.Credit(ctx, 1, money("10000.00"))
	require.NoError(t, err)

	_, err = wallets.Credit(ctx, 1, money("10000.01"))
	require.ErrorIs(t, err, models.ErrAmountExceedsCap)

	wallet, err := wallets.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "10000.00", wallet.Balance.StringFixed(2))

	// refunds restore debited amounts regardless of the cap
	_, err = wallets.Debit(ctx, 1, money("10000.00"))
	require.NoError(t, err)
	wallet, err = wallets.Refund(ctx, 1, money("10000.00"))
	require.NoError(t, err)
	assert.Equal(t, "10000.00", wallet.Balance.StringFixed(2))

	_, err = wallets.Refund(ctx, 1, decimal.Zero)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = wallets.Refund(ctx, 2, money("1.00"))
	assert.ErrorIs(t, err, models.ErrWalletNotFound)
}

func TestMemoryWalletStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	wallets := store.NewMemoryWalletStore()

	wallet, err := wallets.Create(ctx, 1)
	require.NoError(t, err)
	wallet.Balance = money("100.00")

	stored, err := wallets.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, stored.Balance.IsZero())
}

func TestMemoryWalletStoreConcurrentDebits(t *testing.T) {
	ctx := context.Background()
	wallets := store.NewMemoryWalletStore()

	_, err := wallets.Create(ctx, 1)
	require.NoError(t, err)
	_, err = wallets.Credit(ctx, 1, money("100.00"))
	require.NoError(t, err)

	const goroutines = 50
	var succeeded atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := wallets.Debit(ctx, 1, money("3.00")); err == nil {
				succeeded.Add(1)
			} else {
				assert.ErrorIs(t, err, models.ErrInsufficientFunds)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(33), succeeded.Load())
	wallet, err := wallets.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "1.00", wallet.Balance.StringFixed(2))
}

func TestMemorySaleLedger(t *testing.T) {
	ctx := context.Background()
	ledger := store.NewMemorySaleLedger()

	first := &models.Sale{AssetID: 1, BuyerID: 2, SellerID: 1, Price: money("30.00"), Commission: money("3.00")}
	second := &models.Sale{AssetID: 2, BuyerID: 3, SellerID: 1, Price: money("9.99"), Commission: money("1.00")}
	require.NoError(t, ledger.Append(ctx, first))
	require.NoError(t, ledger.Append(ctx, second))
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, models.SaleKindSale, first.Kind)

	got, err := ledger.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "27.00", got.SellerNet().StringFixed(2))

	_, err = ledger.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrRecordNotFound)

	reversal, err := ledger.Reverse(ctx, first.ID, "refund")
	require.NoError(t, err)
	assert.True(t, reversal.IsReversal())
	assert.Equal(t, first.ID, *reversal.ReversesID)
	assert.Equal(t, "refund", reversal.Reason)

	again, err := ledger.Reverse(ctx, first.ID, "second attempt")
	require.NoError(t, err)
	assert.Equal(t, reversal.ID, again.ID, "reversing twice returns the first reversal")

	_, err = ledger.Reverse(ctx, reversal.ID, "nested")
	assert.ErrorIs(t, err, models.ErrPersistenceFailure)

	_, err = ledger.Reverse(ctx, uuid.New(), "missing")
	assert.ErrorIs(t, err, models.ErrRecordNotFound)

	all, total, err := ledger.List(ctx, models.SaleFilter{}, defaultPage())
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, reversal.ID, all[0].ID, "newest first")

	seller := int64(1)
	kind := models.SaleKindSale
	sales, total, err := ledger.List(ctx, models.SaleFilter{SellerID: &seller, Kind: &kind}, defaultPage())
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, sales, 2)

	buyer := int64(3)
	sales, total, err = ledger.List(ctx, models.SaleFilter{BuyerID: &buyer}, defaultPage())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, second.ID, sales[0].ID)

	page := utils.NormalizePagination(utils.PaginationParams{Page: 2, Limit: 2, Order: "asc"})
	sales, total, err = ledger.List(ctx, models.SaleFilter{}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, sales, 1)
	assert.Equal(t, reversal.ID, sales[0].ID)
}

func TestMemoryGrantStore(t *testing.T) {
	ctx := context.Background()
	grants := store.NewMemoryGrantStore()

	exists, err := grants.Exists(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	saleID := uuid.New()
	grant, err := grants.Create(ctx, 2, 1, saleID)
	require.NoError(t, err)
	assert.Equal(t, saleID, grant.SaleID)

	_, err = grants.Create(ctx, 2, 1, uuid.New())
	assert.ErrorIs(t, err, models.ErrGrantAlreadyExists)

	exists, err = grants.Exists(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = grants.Exists(ctx, 3, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	list, total, err := grants.ListByBuyer(ctx, 2, defaultPage())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, grant.ID, list[0].ID)
}

func TestMemoryGrantStoreConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	grants := store.NewMemoryGrantStore()

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := grants.Create(ctx, 2, 1, uuid.New()); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
}

func TestMemoryCatalogSeed(t *testing.T) {
	ctx := context.Background()
	catalog := store.NewMemoryCatalog()
	catalog.Seed()

	asset, err := catalog.GetAsset(ctx, 1)
	require.NoError(t, err)
	assert.True(t, asset.IsPublished())

	draft, err := catalog.GetAsset(ctx, 3)
	require.NoError(t, err)
	assert.False(t, draft.IsPublished())

	_, err = catalog.GetAsset(ctx, 42)
	assert.ErrorIs(t, err, models.ErrAssetNotFound)
}

func TestMemoryNotificationStore(t *testing.T) {
	ctx := context.Background()
	notifications := store.NewMemoryNotificationStore()

	n := &models.AdminNotification{Type: models.NotificationTypePurchaseReconciliation, Title: "t"}
	require.NoError(t, notifications.Create(ctx, n))
	assert.Equal(t, models.NotificationStatusUnread, n.Status)
	assert.Equal(t, models.NotificationPriorityMedium, n.Priority)

	read, err := notifications.MarkRead(ctx, n.ID)
	require.NoError(t, err)
	firstReadAt := *read.ReadAt

	read, err = notifications.MarkRead(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, firstReadAt, *read.ReadAt, "marking twice keeps the first read time")

	list, total, err := notifications.List(ctx, models.NotificationStatusRead, defaultPage())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, n.ID, list[0].ID)
}
