package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/javajoker/digital-marketplace/internal/metrics"
	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/services"
	"github.com/javajoker/digital-marketplace/internal/services/mocks"
	"github.com/javajoker/digital-marketplace/internal/store"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

// CompensationTestSuite injects failures after the debit. Wallets and the
// catalog are real in-memory stores so balances can be checked.
type CompensationTestSuite struct {
	suite.Suite
	ctx           context.Context
	ctrl          *gomock.Controller
	mem           *store.MemoryStores
	sales         *mocks.MockSaleLedger
	grants        *mocks.MockAccessGrantStore
	notifications *mocks.MockNotificationStore
	metrics       *metrics.Metrics
	service       *services.PurchaseService
}

func TestCompensationTestSuite(t *testing.T) {
	suite.Run(t, new(CompensationTestSuite))
}

func (s *CompensationTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.mem = store.NewMemoryStores()
	s.sales = mocks.NewMockSaleLedger(s.ctrl)
	s.grants = mocks.NewMockAccessGrantStore(s.ctrl)
	s.notifications = mocks.NewMockNotificationStore(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())

	s.mem.Catalog.Put(models.Asset{ID: 1, OwnerID: artistID, Price: money("30.00"), Status: models.AssetStatusPublished})
	_, err := s.mem.Wallets.Create(s.ctx, buyerID)
	s.Require().NoError(err)
	_, err = s.mem.Wallets.Credit(s.ctx, buyerID, money("50.00"))
	s.Require().NoError(err)

	s.buildService(s.mem.Wallets)
}

func (s *CompensationTestSuite) buildService(wallets services.WalletStore) {
	logger := nullLogger()
	stores := services.Stores{
		Wallets:       wallets,
		Catalog:       s.mem.Catalog,
		Sales:         s.sales,
		Grants:        s.grants,
		Notifications: s.notifications,
	}
	notifier := services.NewNotificationService(s.notifications, logger)
	s.service = services.NewPurchaseService(stores, notifier, services.NewLocalLocker(), testOptions(), s.metrics, logger)
}

func (s *CompensationTestSuite) balance() string {
	wallet, err := s.mem.Wallets.Get(s.ctx, buyerID)
	s.Require().NoError(err)
	return wallet.Balance.StringFixed(2)
}

func (s *CompensationTestSuite) TestSaleAppendFailureRefundsBuyer() {
	dbErr := models.PersistenceError("append sale", errors.New("connection reset"))

	s.grants.EXPECT().Exists(gomock.Any(), buyerID, int64(1)).Return(false, nil)
	s.sales.EXPECT().Append(gomock.Any(), gomock.Any()).Return(dbErr)

	_, err := s.service.Purchase(s.ctx, 1, buyerID, nil)
	s.Require().Error(err)
	s.ErrorIs(err, models.ErrPersistenceFailure)
	s.Same(dbErr, err, "the original error is returned")
	s.False(models.RequiresReconciliation(err))

	s.Equal("50.00", s.balance())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Compensations.WithLabelValues("credit_buyer", "ok")))
}

func (s *CompensationTestSuite) TestGrantFailureRefundsAndReversesSale() {
	var recorded *models.Sale

	s.grants.EXPECT().Exists(gomock.Any(), buyerID, int64(1)).Return(false, nil)
	s.sales.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, sale *models.Sale) error {
		sale.ID = uuid.New()
		recorded = sale
		return nil
	})
	s.grants.EXPECT().Create(gomock.Any(), buyerID, int64(1), gomock.Any()).
		Return(nil, models.GrantAlreadyExistsError(buyerID, 1))
	s.sales.EXPECT().Reverse(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, saleID uuid.UUID, reason string) (*models.Sale, error) {
			s.Equal(recorded.ID, saleID)
			s.Contains(reason, "GRANT_ALREADY_EXISTS")
			reversesID := saleID
			return &models.Sale{Kind: models.SaleKindReversal, ReversesID: &reversesID}, nil
		})

	_, err := s.service.Purchase(s.ctx, 1, buyerID, nil)
	s.ErrorIs(err, models.ErrGrantAlreadyExists, "the kind is preserved")
	s.Equal("50.00", s.balance())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Compensations.WithLabelValues("reverse_sale", "ok")))
}

func (s *CompensationTestSuite) TestDebitIgnoresCallerCancellation() {
	wallets := mocks.NewMockWalletStore(s.ctrl)
	s.buildService(wallets)

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	s.grants.EXPECT().Exists(gomock.Any(), buyerID, int64(1)).Return(false, nil)
	wallets.EXPECT().Debit(gomock.Any(), buyerID, gomock.Any()).DoAndReturn(
		func(debitCtx context.Context, _ int64, _ decimal.Decimal) (*models.Wallet, error) {
			// client disconnects while the UPDATE is in flight
			cancel()
			s.NoError(debitCtx.Err())
			return &models.Wallet{}, nil
		})
	s.sales.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, sale *models.Sale) error {
		sale.ID = uuid.New()
		return nil
	})
	s.grants.EXPECT().Create(gomock.Any(), buyerID, int64(1), gomock.Any()).Return(&models.AccessGrant{}, nil)

	sale, err := s.service.Purchase(ctx, 1, buyerID, nil)
	s.Require().NoError(err)
	s.NotNil(sale)
}

func (s *CompensationTestSuite) TestRefundAbovePriceCap() {
	capped := store.NewMemoryWalletStore(store.WithCreditCap(money("100.00")))
	s.buildService(capped)

	_, err := capped.Create(s.ctx, buyerID)
	s.Require().NoError(err)
	for i := 0; i < 2; i++ {
		_, err = capped.Credit(s.ctx, buyerID, money("100.00"))
		s.Require().NoError(err)
	}
	s.mem.Catalog.Put(models.Asset{ID: 3, OwnerID: artistID, Price: money("150.00"), Status: models.AssetStatusPublished})

	s.grants.EXPECT().Exists(gomock.Any(), buyerID, int64(3)).Return(false, nil)
	s.sales.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, sale *models.Sale) error {
		sale.ID = uuid.New()
		return nil
	})
	s.grants.EXPECT().Create(gomock.Any(), buyerID, int64(3), gomock.Any()).
		Return(nil, models.PersistenceError("create access grant", errors.New("connection reset")))
	s.sales.EXPECT().Reverse(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.Sale{Kind: models.SaleKindReversal}, nil)

	_, err = s.service.Purchase(s.ctx, 3, buyerID, nil)
	s.ErrorIs(err, models.ErrPersistenceFailure)
	s.False(models.RequiresReconciliation(err))

	wallet, err := capped.Get(s.ctx, buyerID)
	s.Require().NoError(err)
	s.Equal("200.00", wallet.Balance.StringFixed(2))
}

func (s *CompensationTestSuite) TestTransientRefundFailureIsRetried() {
	wallets := mocks.NewMockWalletStore(s.ctrl)
	s.buildService(wallets)

	s.grants.EXPECT().Exists(gomock.Any(), buyerID, int64(1)).Return(false, nil)
	wallets.EXPECT().Debit(gomock.Any(), buyerID, gomock.Any()).Return(&models.Wallet{}, nil)
	s.sales.EXPECT().Append(gomock.Any(), gomock.Any()).Return(models.PersistenceError("append sale", errors.New("timeout")))
	gomock.InOrder(
		wallets.EXPECT().Refund(gomock.Any(), buyerID, gomock.Any()).Return(nil, models.PersistenceError("refund wallet", errors.New("timeout"))),
		wallets.EXPECT().Refund(gomock.Any(), buyerID, gomock.Any()).Return(&models.Wallet{}, nil),
	)

	_, err := s.service.Purchase(s.ctx, 1, buyerID, nil)
	s.ErrorIs(err, models.ErrPersistenceFailure)
	s.False(models.RequiresReconciliation(err))
}

func (s *CompensationTestSuite) TestRefundFailureEscalates() {
	wallets := mocks.NewMockWalletStore(s.ctrl)
	s.buildService(wallets)

	cause := models.PersistenceError("append sale", errors.New("disk full"))
	refundErr := models.PersistenceError("refund wallet", errors.New("connection refused"))

	s.grants.EXPECT().Exists(gomock.Any(), buyerID, int64(1)).Return(false, nil)
	wallets.EXPECT().Debit(gomock.Any(), buyerID, gomock.Any()).Return(&models.Wallet{}, nil)
	s.sales.EXPECT().Append(gomock.Any(), gomock.Any()).Return(cause)
	// first try plus CompensationMaxRetries
	wallets.EXPECT().Refund(gomock.Any(), buyerID, gomock.Any()).Return(nil, refundErr).Times(3)
	s.notifications.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n *models.AdminNotification) error {
			s.Equal(models.NotificationTypePurchaseReconciliation, n.Type)
			s.Equal(models.NotificationPriorityHigh, n.Priority)
			s.Equal("credit_buyer", n.Data["step"])
			s.Equal("30.00", n.Data["amount"])
			n.ID = uuid.New()
			return nil
		})

	_, err := s.service.Purchase(s.ctx, 1, buyerID, nil)
	s.Require().Error(err)
	s.True(models.RequiresReconciliation(err))
	s.ErrorIs(err, models.ErrPersistenceFailure)

	var compErr *models.CompensationError
	s.Require().ErrorAs(err, &compErr)
	s.Equal("credit_buyer", compErr.Step)
	s.Same(cause, compErr.Cause)
	s.Same(refundErr, compErr.Compensation)
	s.NotNil(compErr.NotificationID)
}

func (s *CompensationTestSuite) TestPermanentRefundFailureIsNotRetried() {
	wallets := mocks.NewMockWalletStore(s.ctrl)
	s.buildService(wallets)

	s.grants.EXPECT().Exists(gomock.Any(), buyerID, int64(1)).Return(false, nil)
	wallets.EXPECT().Debit(gomock.Any(), buyerID, gomock.Any()).Return(&models.Wallet{}, nil)
	s.sales.EXPECT().Append(gomock.Any(), gomock.Any()).Return(models.PersistenceError("append sale", errors.New("boom")))
	wallets.EXPECT().Refund(gomock.Any(), buyerID, gomock.Any()).Return(nil, models.WalletNotFoundError(buyerID)).Times(1)
	s.notifications.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.service.Purchase(s.ctx, 1, buyerID, nil)
	s.True(models.RequiresReconciliation(err))
}

func (s *CompensationTestSuite) TestReverseFailureEscalates() {
	s.grants.EXPECT().Exists(gomock.Any(), buyerID, int64(1)).Return(false, nil)
	s.sales.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, sale *models.Sale) error {
		sale.ID = uuid.New()
		return nil
	})
	s.grants.EXPECT().Create(gomock.Any(), buyerID, int64(1), gomock.Any()).
		Return(nil, models.PersistenceError("create access grant", errors.New("deadlock")))
	s.sales.EXPECT().Reverse(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, models.PersistenceError("reverse sale", errors.New("deadlock"))).Times(3)
	s.notifications.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n *models.AdminNotification) error {
			s.Equal("reverse_sale", n.Data["step"])
			s.Equal("sale", n.RelatedResourceType)
			s.NotNil(n.RelatedResourceID)
			return nil
		})

	_, err := s.service.Purchase(s.ctx, 1, buyerID, nil)

	var compErr *models.CompensationError
	s.Require().ErrorAs(err, &compErr)
	s.Equal("reverse_sale", compErr.Step)
	// the refund went through before the reversal failed
	s.Equal("50.00", s.balance())
}

func (s *CompensationTestSuite) TestEscalationFailureStillReturnsCompensationError() {
	wallets := mocks.NewMockWalletStore(s.ctrl)
	s.buildService(wallets)

	s.grants.EXPECT().Exists(gomock.Any(), buyerID, int64(1)).Return(false, nil)
	wallets.EXPECT().Debit(gomock.Any(), buyerID, gomock.Any()).Return(&models.Wallet{}, nil)
	s.sales.EXPECT().Append(gomock.Any(), gomock.Any()).Return(models.PersistenceError("append sale", errors.New("boom")))
	wallets.EXPECT().Refund(gomock.Any(), buyerID, gomock.Any()).Return(nil, models.PersistenceError("credit", errors.New("boom"))).AnyTimes()
	s.notifications.EXPECT().Create(gomock.Any(), gomock.Any()).Return(models.PersistenceError("create notification", errors.New("boom")))

	_, err := s.service.Purchase(s.ctx, 1, buyerID, nil)

	var compErr *models.CompensationError
	s.Require().ErrorAs(err, &compErr)
	s.Nil(compErr.NotificationID)
}

func (s *CompensationTestSuite) TestCancelledContextDoesNotSkipCompensation() {
	ctx, cancel := context.WithCancel(s.ctx)

	s.grants.EXPECT().Exists(gomock.Any(), buyerID, int64(1)).Return(false, nil)
	s.sales.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, _ *models.Sale) error {
		// caller goes away after the debit
		cancel()
		return models.PersistenceError("append sale", context.Canceled)
	})

	_, err := s.service.Purchase(ctx, 1, buyerID, nil)
	s.ErrorIs(err, models.ErrPersistenceFailure)
	s.Equal("50.00", s.balance())
}

func (s *CompensationTestSuite) TestValidationErrorsArePassedThrough() {
	lookupErr := models.PersistenceError("check access grant", errors.New("timeout"))
	s.grants.EXPECT().Exists(gomock.Any(), buyerID, int64(1)).Return(false, lookupErr)

	_, err := s.service.Purchase(s.ctx, 1, buyerID, nil)
	s.Same(lookupErr, err)
	s.Equal("50.00", s.balance())

	_, total, listErr := s.mem.Sales.List(s.ctx, models.SaleFilter{}, utils.NormalizePagination(utils.PaginationParams{}))
	s.NoError(listErr)
	s.Zero(total)
}
