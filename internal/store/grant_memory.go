// internal/store/grant_memory.go
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

type grantKey struct {
	buyerID int64
	assetID int64
}

type MemoryGrantStore struct {
	mu      sync.RWMutex
	grants  map[grantKey]models.AccessGrant
	byBuyer map[int64][]grantKey
}

func NewMemoryGrantStore() *MemoryGrantStore {
	return &MemoryGrantStore{
		grants:  make(map[grantKey]models.AccessGrant),
		byBuyer: make(map[int64][]grantKey),
	}
}

func (s *MemoryGrantStore) Exists(_ context.Context, buyerID, assetID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.grants[grantKey{buyerID, assetID}]
	return exists, nil
}

func (s *MemoryGrantStore) Create(_ context.Context, buyerID, assetID int64, saleID uuid.UUID) (*models.AccessGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := grantKey{buyerID, assetID}
	if _, exists := s.grants[key]; exists {
		return nil, models.GrantAlreadyExistsError(buyerID, assetID)
	}

	grant := models.AccessGrant{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		AssetID:   assetID,
		SaleID:    saleID,
		GrantedAt: time.Now().UTC(),
	}
	s.grants[key] = grant
	s.byBuyer[buyerID] = append(s.byBuyer[buyerID], key)

	return &grant, nil
}

func (s *MemoryGrantStore) ListByBuyer(_ context.Context, buyerID int64, params utils.PaginationParams) ([]models.AccessGrant, int64, error) {
	s.mu.RLock()
	keys := s.byBuyer[buyerID]
	grants := make([]models.AccessGrant, 0, len(keys))
	for _, key := range keys {
		grants = append(grants, s.grants[key])
	}
	s.mu.RUnlock()

	if params.Order != "asc" {
		for i, j := 0, len(grants)-1; i < j; i, j = i+1, j-1 {
			grants[i], grants[j] = grants[j], grants[i]
		}
	}

	start, end := utils.PageBounds(params, len(grants))
	return grants[start:end], int64(len(grants)), nil
}
