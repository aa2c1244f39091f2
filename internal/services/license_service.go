// internal/services/license_service.go
package services

import (
	"context"
	"errors"

	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

var (
	ErrAccessDenied = errors.New("access denied")
	ErrNoFile       = errors.New("asset has no downloadable file")
)

// LicenseService reads access grants and decides who may download an asset.
type LicenseService struct {
	grants  AccessGrantStore
	catalog CatalogLookup
	storage *StorageService
}

type AccessDecision struct {
	AssetID   int64  `json:"asset_id"`
	UserID    int64  `json:"user_id"`
	Allowed   bool   `json:"allowed"`
	Ownership string `json:"ownership,omitempty"`
}

const (
	ownershipSeller = "seller"
	ownershipGrant  = "grant"
)

func NewLicenseService(grants AccessGrantStore, catalog CatalogLookup, storage *StorageService) *LicenseService {
	return &LicenseService{
		grants:  grants,
		catalog: catalog,
		storage: storage,
	}
}

func (s *LicenseService) GetUserLicenses(ctx context.Context, userID int64, params utils.PaginationParams) ([]models.AccessGrant, int64, error) {
	return s.grants.ListByBuyer(ctx, userID, params)
}

// CheckAccess allows the asset's owner and any buyer holding a grant.
func (s *LicenseService) CheckAccess(ctx context.Context, assetID, userID int64) (*AccessDecision, error) {
	decision, _, err := s.checkAccess(ctx, assetID, userID)
	return decision, err
}

func (s *LicenseService) checkAccess(ctx context.Context, assetID, userID int64) (*AccessDecision, *models.Asset, error) {
	asset, err := s.catalog.GetAsset(ctx, assetID)
	if err != nil {
		return nil, nil, err
	}

	decision := &AccessDecision{AssetID: assetID, UserID: userID}
	if asset.OwnerID == userID {
		decision.Allowed = true
		decision.Ownership = ownershipSeller
		return decision, asset, nil
	}

	owned, err := s.grants.Exists(ctx, userID, assetID)
	if err != nil {
		return nil, nil, err
	}
	if owned {
		decision.Allowed = true
		decision.Ownership = ownershipGrant
	}
	return decision, asset, nil
}

// DownloadLink returns a signed link for users allowed by CheckAccess.
func (s *LicenseService) DownloadLink(ctx context.Context, assetID, userID int64) (*DownloadLink, error) {
	decision, asset, err := s.checkAccess(ctx, assetID, userID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, ErrAccessDenied
	}
	if asset.FileKey == "" {
		return nil, ErrNoFile
	}

	return s.storage.DownloadLink(asset.FileKey)
}
