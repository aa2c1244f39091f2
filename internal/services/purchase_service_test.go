package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/javajoker/digital-marketplace/internal/metrics"
	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/services"
	"github.com/javajoker/digital-marketplace/internal/store"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

const (
	artistID int64 = 100
	buyerID  int64 = 200
	otherID  int64 = 300
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testOptions() services.PurchaseOptions {
	return services.PurchaseOptions{
		CommissionRate:            money("0.10"),
		LockTimeout:               2 * time.Second,
		CompensationMaxRetries:    2,
		CompensationRetryInterval: time.Millisecond,
	}
}

func nullLogger() *logrus.Logger {
	logger, _ := logtest.NewNullLogger()
	return logger
}

type PurchaseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	mem      *store.MemoryStores
	metrics  *metrics.Metrics
	purchase *services.PurchaseService
	wallets  *services.WalletService
}

func (s *PurchaseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.mem = store.NewMemoryStores()
	s.metrics = metrics.New(prometheus.NewRegistry())

	logger := nullLogger()
	stores := s.mem.Stores()
	notifier := services.NewNotificationService(stores.Notifications, logger)
	s.purchase = services.NewPurchaseService(stores, notifier, services.NewLocalLocker(), testOptions(), s.metrics, logger)
	s.wallets = services.NewWalletService(stores.Wallets, money("10000"), s.metrics, logger)

	s.mem.Catalog.Put(models.Asset{ID: 1, OwnerID: artistID, Title: "Published", Price: money("30.00"), Status: models.AssetStatusPublished})
	s.mem.Catalog.Put(models.Asset{ID: 2, OwnerID: artistID, Title: "Draft", Price: money("30.00"), Status: models.AssetStatusDraft})
	s.mem.Catalog.Put(models.Asset{ID: 3, OwnerID: artistID, Title: "Rejected", Price: money("30.00"), Status: models.AssetStatusRejected})
}

func (s *PurchaseServiceTestSuite) fundWallet(ownerID int64, amount string) {
	_, err := s.wallets.CreateWallet(s.ctx, ownerID)
	s.Require().NoError(err)
	if amount != "0" {
		_, err = s.wallets.TopUp(s.ctx, ownerID, money(amount))
		s.Require().NoError(err)
	}
}

func (s *PurchaseServiceTestSuite) balance(ownerID int64) string {
	wallet, err := s.wallets.GetWallet(s.ctx, ownerID)
	s.Require().NoError(err)
	return wallet.Balance.StringFixed(2)
}

func (s *PurchaseServiceTestSuite) grantCount(ownerID int64) int64 {
	_, total, err := s.mem.Grants.ListByBuyer(s.ctx, ownerID, utils.NormalizePagination(utils.PaginationParams{}))
	s.Require().NoError(err)
	return total
}

func (s *PurchaseServiceTestSuite) saleCount() int64 {
	_, total, err := s.mem.Sales.List(s.ctx, models.SaleFilter{}, utils.NormalizePagination(utils.PaginationParams{}))
	s.Require().NoError(err)
	return total
}

func TestPurchaseServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PurchaseServiceTestSuite))
}

func (s *PurchaseServiceTestSuite) TestPurchaseSuccessThenAlreadyOwned() {
	s.fundWallet(buyerID, "50.00")

	sale, err := s.purchase.Purchase(s.ctx, 1, buyerID, &services.PurchaseRequest{ExternalRef: "gw-123"})
	s.Require().NoError(err)

	s.Equal("30.00", sale.Price.StringFixed(2))
	s.Equal("3.00", sale.Commission.StringFixed(2))
	s.Equal("27.00", sale.SellerNet().StringFixed(2))
	s.Equal(artistID, sale.SellerID)
	s.Equal(buyerID, sale.BuyerID)
	s.Equal("gw-123", sale.ExternalRef)
	s.Equal(models.SaleKindSale, sale.Kind)
	s.False(sale.CreatedAt.IsZero())

	s.Equal("20.00", s.balance(buyerID))
	s.Equal(int64(1), s.grantCount(buyerID))

	_, err = s.purchase.Purchase(s.ctx, 1, buyerID, nil)
	s.ErrorIs(err, models.ErrAlreadyOwned)
	s.Equal("20.00", s.balance(buyerID))
	s.Equal(int64(1), s.grantCount(buyerID))
	s.Equal(int64(1), s.saleCount())

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Purchases.WithLabelValues("completed")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Purchases.WithLabelValues(string(models.ErrKindAlreadyOwned))))
}

func (s *PurchaseServiceTestSuite) TestInsufficientFunds() {
	s.fundWallet(buyerID, "10.00")

	_, err := s.purchase.Purchase(s.ctx, 1, buyerID, nil)
	s.Require().ErrorIs(err, models.ErrInsufficientFunds)

	var domainErr *models.Error
	s.Require().True(errors.As(err, &domainErr))
	s.Equal("30", domainErr.Details["required"].(decimal.Decimal).String())
	s.Equal("10", domainErr.Details["balance"].(decimal.Decimal).String())

	s.Equal("10.00", s.balance(buyerID))
	s.Equal(int64(0), s.grantCount(buyerID))
	s.Equal(int64(0), s.saleCount())
}

func (s *PurchaseServiceTestSuite) TestWalletNotFound() {
	_, err := s.purchase.Purchase(s.ctx, 1, buyerID, nil)
	s.ErrorIs(err, models.ErrWalletNotFound)
	s.Equal(int64(0), s.saleCount())
}

func (s *PurchaseServiceTestSuite) TestAssetNotFound() {
	s.fundWallet(buyerID, "50.00")

	_, err := s.purchase.Purchase(s.ctx, 999, buyerID, nil)
	s.ErrorIs(err, models.ErrAssetNotFound)
	s.Equal("50.00", s.balance(buyerID))
}

func (s *PurchaseServiceTestSuite) TestNonPublishedAssetsAreRejected() {
	s.fundWallet(buyerID, "50.00")

	for _, assetID := range []int64{2, 3} {
		_, err := s.purchase.Purchase(s.ctx, assetID, buyerID, nil)
		s.ErrorIs(err, models.ErrAssetNotAvailable)
	}
	s.Equal("50.00", s.balance(buyerID))
	s.Equal(int64(0), s.saleCount())
}

func (s *PurchaseServiceTestSuite) TestSelfPurchaseIsRejected() {
	s.fundWallet(artistID, "1000.00")

	_, err := s.purchase.Purchase(s.ctx, 1, artistID, nil)
	s.ErrorIs(err, models.ErrSelfPurchaseNotAllowed)

	// a non-published asset is still refused for its owner
	_, err = s.purchase.Purchase(s.ctx, 2, artistID, nil)
	s.Error(err)

	s.Equal("1000.00", s.balance(artistID))
	s.Equal(int64(0), s.saleCount())
}

func (s *PurchaseServiceTestSuite) TestExternalRefTooLong() {
	s.fundWallet(buyerID, "50.00")

	_, err := s.purchase.Purchase(s.ctx, 1, buyerID, &services.PurchaseRequest{ExternalRef: strings.Repeat("x", 101)})
	s.Error(err)
	s.Equal("50.00", s.balance(buyerID))
}

func (s *PurchaseServiceTestSuite) TestConcurrentDoubleSubmission() {
	s.fundWallet(buyerID, "100.00")

	const attempts = 10
	var succeeded, alreadyOwned atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.purchase.Purchase(s.ctx, 1, buyerID, nil)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, models.ErrAlreadyOwned):
				alreadyOwned.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), succeeded.Load(), "exactly one purchase should succeed")
	s.Equal(int32(attempts-1), alreadyOwned.Load(), "the rest should see the grant")
	s.Equal("70.00", s.balance(buyerID))
	s.Equal(int64(1), s.grantCount(buyerID))
	s.Equal(int64(1), s.saleCount())
}

func (s *PurchaseServiceTestSuite) TestConcurrentDistinctBuyers() {
	s.fundWallet(buyerID, "30.00")
	s.fundWallet(otherID, "30.00")

	var g errgroup.Group
	for _, id := range []int64{buyerID, otherID} {
		id := id
		g.Go(func() error {
			_, err := s.purchase.Purchase(s.ctx, 1, id, nil)
			return err
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal("0.00", s.balance(buyerID))
	s.Equal("0.00", s.balance(otherID))
	s.Equal(int64(2), s.saleCount())
}

func (s *PurchaseServiceTestSuite) TestConcurrentPurchasesNeverOverdraw() {
	s.fundWallet(buyerID, "60.00")
	for id := int64(10); id < 20; id++ {
		s.mem.Catalog.Put(models.Asset{ID: id, OwnerID: artistID, Price: money("30.00"), Status: models.AssetStatusPublished})
	}

	var succeeded, insufficient atomic.Int32
	var wg sync.WaitGroup
	for id := int64(10); id < 20; id++ {
		wg.Add(1)
		go func(assetID int64) {
			defer wg.Done()
			_, err := s.purchase.Purchase(s.ctx, assetID, buyerID, nil)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, models.ErrInsufficientFunds):
				insufficient.Add(1)
			}
		}(id)
	}
	wg.Wait()

	s.Equal(int32(2), succeeded.Load())
	s.Equal(int32(8), insufficient.Load())
	s.Equal("0.00", s.balance(buyerID))
}

func (s *PurchaseServiceTestSuite) TestLockTimeoutIsPersistenceFailure() {
	s.fundWallet(buyerID, "50.00")

	locker := services.NewLocalLocker()
	release, err := locker.Acquire(s.ctx, "purchase:200:1")
	s.Require().NoError(err)
	defer release()

	opts := testOptions()
	opts.LockTimeout = 20 * time.Millisecond
	svc := services.NewPurchaseService(s.mem.Stores(), nil, locker, opts, nil, nullLogger())

	_, err = svc.Purchase(s.ctx, 1, buyerID, nil)
	s.ErrorIs(err, models.ErrPersistenceFailure)
	s.Equal("50.00", s.balance(buyerID))
}

func TestComputeCommission(t *testing.T) {
	rate := money("0.10")
	cases := []struct {
		price      string
		commission string
	}{
		{"9.99", "1.00"},
		{"10.00", "1.00"},
		{"0.01", "0.00"},
		{"1000.00", "100.00"},
		{"30.00", "3.00"},
		{"0.05", "0.01"},
	}

	for _, tc := range cases {
		t.Run(tc.price, func(t *testing.T) {
			price := money(tc.price)
			commission := services.ComputeCommission(price, rate)

			assert.Equal(t, tc.commission, commission.StringFixed(2))
			assert.True(t, commission.Add(price.Sub(commission)).Equal(price), "commission + net must equal price")
			assert.Equal(t, int32(-2), commission.Round(2).Exponent())
		})
	}
}

func TestPurchaseWithSeededCatalog(t *testing.T) {
	mem := store.NewMemoryStores()
	mem.Catalog.Seed()

	ctx := context.Background()
	logger := nullLogger()
	wallets := services.NewWalletService(mem.Wallets, money("10000"), nil, logger)
	purchases := services.NewPurchaseService(mem.Stores(), nil, services.NewLocalLocker(), testOptions(), nil, logger)

	_, err := wallets.CreateWallet(ctx, 2)
	require.NoError(t, err)
	_, err = wallets.TopUp(ctx, 2, money("9.99"))
	require.NoError(t, err)

	sale, err := purchases.Purchase(ctx, 2, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "1.00", sale.Commission.StringFixed(2))
	assert.Equal(t, "8.99", sale.SellerNet().StringFixed(2))
}
