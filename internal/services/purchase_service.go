// internal/services/purchase_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/javajoker/digital-marketplace/internal/metrics"
	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

const (
	compensationStepCredit  = "credit_buyer"
	compensationStepReverse = "reverse_sale"
)

type PurchaseOptions struct {
	CommissionRate            decimal.Decimal
	LockTimeout               time.Duration
	CompensationMaxRetries    int
	CompensationRetryInterval time.Duration
}

// PurchaseService runs the purchase workflow: validate, debit the buyer,
// record the sale, grant access. Steps after the debit are undone by
// compensation when a later write fails.
type PurchaseService struct {
	catalog  CatalogLookup
	wallets  WalletStore
	sales    SaleLedger
	grants   AccessGrantStore
	notifier *NotificationService
	locker   Locker
	opts     PurchaseOptions
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	tracer   trace.Tracer
}

type PurchaseRequest struct {
	ExternalRef string `json:"external_ref,omitempty" validate:"omitempty,max=100"`
}

func NewPurchaseService(stores Stores, notifier *NotificationService, locker Locker, opts PurchaseOptions, m *metrics.Metrics, logger *logrus.Logger) *PurchaseService {
	return &PurchaseService{
		catalog:  stores.Catalog,
		wallets:  stores.Wallets,
		sales:    stores.Sales,
		grants:   stores.Grants,
		notifier: notifier,
		locker:   locker,
		opts:     opts,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("github.com/javajoker/digital-marketplace/internal/services"),
	}
}

// ComputeCommission returns price × rate rounded to cents.
func ComputeCommission(price, rate decimal.Decimal) decimal.Decimal {
	return price.Mul(rate).Round(2)
}

// purchase tracks one run of the workflow.
type purchase struct {
	assetID int64
	buyerID int64
	state   models.PurchaseState
	asset   *models.Asset
	sale    *models.Sale
	log     *logrus.Entry
}

func (p *purchase) transition(state models.PurchaseState) {
	p.state = state
	entry := p.log.WithField("state", state)
	if p.sale != nil {
		entry = entry.WithField("sale_id", p.sale.ID)
	}
	entry.Debug("Purchase state changed")
}

// Purchase buys assetID for buyerID. Domain failures are returned with
// their original kind. A failure that could not be compensated is returned
// as *models.CompensationError wrapping the original error.
func (s *PurchaseService) Purchase(ctx context.Context, assetID, buyerID int64, req *PurchaseRequest) (*models.Sale, error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "PurchaseService.Purchase", trace.WithAttributes(
		attribute.Int64("asset.id", assetID),
		attribute.Int64("buyer.id", buyerID),
	))
	defer span.End()

	if req == nil {
		req = &PurchaseRequest{}
	}

	p := &purchase{
		assetID: assetID,
		buyerID: buyerID,
		state:   models.PurchaseStateInitiated,
		log: s.logger.WithFields(logrus.Fields{
			"asset_id": assetID,
			"buyer_id": buyerID,
		}),
	}

	sale, err := s.run(ctx, p, req)
	if err != nil {
		failedAt := p.state
		p.transition(models.PurchaseStateFailed)

		outcome := resultLabel(err)
		s.metrics.ObservePurchase(outcome, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		span.SetAttributes(attribute.String("purchase.failed_at", string(failedAt)))

		entry := p.log.WithError(err).WithField("failed_at", failedAt)
		if models.RequiresReconciliation(err) {
			entry.WithField("reconciliation_required", true).Error("Purchase failed and compensation did not complete")
		} else {
			entry.Info("Purchase failed")
		}
		return nil, err
	}

	s.metrics.ObservePurchase("completed", start)
	span.SetAttributes(attribute.String("sale.id", sale.ID.String()))
	p.log.WithFields(logrus.Fields{
		"sale_id":    sale.ID,
		"price":      sale.Price.StringFixed(2),
		"commission": sale.Commission.StringFixed(2),
	}).Info("Purchase completed")

	return sale, nil
}

func (s *PurchaseService) run(ctx context.Context, p *purchase, req *PurchaseRequest) (*models.Sale, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// One purchase per (buyer, asset) at a time, so a double submission
	// sees the first one's grant.
	lockCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.opts.LockTimeout > 0 {
		lockCtx, cancel = context.WithTimeout(ctx, s.opts.LockTimeout)
	}
	release, err := s.locker.Acquire(lockCtx, purchaseLockKey(p.buyerID, p.assetID))
	cancel()
	if err != nil {
		return nil, models.PersistenceError("acquire purchase lock", err)
	}
	defer release()

	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	p.transition(models.PurchaseStateValidated)

	// The debit and everything after it ignore caller cancellation, so a
	// committed debit is always either followed through or compensated.
	work := context.WithoutCancel(ctx)

	price := p.asset.Price
	if _, err := s.wallets.Debit(work, p.buyerID, price); err != nil {
		return nil, err
	}
	p.transition(models.PurchaseStateDebited)

	sale := &models.Sale{
		Kind:        models.SaleKindSale,
		AssetID:     p.assetID,
		BuyerID:     p.buyerID,
		SellerID:    p.asset.OwnerID,
		Price:       price,
		Commission:  ComputeCommission(price, s.opts.CommissionRate),
		ExternalRef: req.ExternalRef,
	}
	if err := s.sales.Append(work, sale); err != nil {
		return nil, s.compensate(work, p, err)
	}
	p.sale = sale
	p.transition(models.PurchaseStateRecorded)

	if _, err := s.grants.Create(work, p.buyerID, p.assetID, sale.ID); err != nil {
		return nil, s.compensate(work, p, err)
	}
	p.transition(models.PurchaseStateGranted)

	p.transition(models.PurchaseStateCompleted)
	return sale, nil
}

func (s *PurchaseService) validate(ctx context.Context, p *purchase) error {
	asset, err := s.catalog.GetAsset(ctx, p.assetID)
	if err != nil {
		return err
	}
	if !asset.IsPublished() {
		return models.AssetNotAvailableError(asset.ID, asset.Status)
	}
	if asset.OwnerID == p.buyerID {
		return models.SelfPurchaseError(asset.ID, p.buyerID)
	}

	owned, err := s.grants.Exists(ctx, p.buyerID, p.assetID)
	if err != nil {
		return err
	}
	if owned {
		return models.AlreadyOwnedError(p.assetID, p.buyerID)
	}

	p.asset = asset
	return nil
}

// compensate undoes the debit and, when a sale was recorded, appends its
// reversal. It returns cause unchanged on success.
func (s *PurchaseService) compensate(ctx context.Context, p *purchase, cause error) error {
	ctx, span := s.tracer.Start(ctx, "PurchaseService.compensate")
	defer span.End()

	p.log.WithError(cause).WithField("state", p.state).Warn("Purchase step failed, compensating")

	price := p.asset.Price
	err := s.retry(ctx, func() error {
		_, err := s.wallets.Refund(ctx, p.buyerID, price)
		return err
	})
	s.metrics.IncCompensation(compensationStepCredit, resultLabel(err))
	if err != nil {
		span.RecordError(err)
		return s.escalate(ctx, p, compensationStepCredit, cause, err)
	}

	if p.sale != nil {
		reason := fmt.Sprintf("purchase compensated: %v", cause)
		err := s.retry(ctx, func() error {
			_, err := s.sales.Reverse(ctx, p.sale.ID, reason)
			return err
		})
		s.metrics.IncCompensation(compensationStepReverse, resultLabel(err))
		if err != nil {
			span.RecordError(err)
			return s.escalate(ctx, p, compensationStepReverse, cause, err)
		}
	}

	p.log.WithError(cause).Info("Purchase compensated")
	return cause
}

// retry runs op with bounded exponential backoff. Errors other than
// persistence failures are not retried.
func (s *PurchaseService) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.CompensationRetryInterval
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.opts.CompensationMaxRetries)), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if kind, ok := models.KindOf(err); ok && kind != models.ErrKindPersistenceFailure {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func (s *PurchaseService) escalate(ctx context.Context, p *purchase, step string, cause, failure error) error {
	compErr := &models.CompensationError{
		Cause:        cause,
		Compensation: failure,
		Step:         step,
	}

	var saleID *uuid.UUID
	if p.sale != nil {
		id := p.sale.ID
		saleID = &id
	}

	if s.notifier != nil {
		notification, err := s.notifier.EscalatePurchaseReconciliation(ctx, ReconciliationRequest{
			AssetID: p.assetID,
			BuyerID: p.buyerID,
			SaleID:  saleID,
			Amount:  p.asset.Price.StringFixed(2),
			Step:    step,
			Cause:   cause,
			Failure: failure,
		})
		if err == nil {
			compErr.NotificationID = &notification.ID
		}
	}

	return compErr
}
