// internal/store/sale_memory.go
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

type MemorySaleLedger struct {
	mu        sync.RWMutex
	entries   []models.Sale
	byID      map[uuid.UUID]int
	reversals map[uuid.UUID]uuid.UUID
}

func NewMemorySaleLedger() *MemorySaleLedger {
	return &MemorySaleLedger{
		byID:      make(map[uuid.UUID]int),
		reversals: make(map[uuid.UUID]uuid.UUID),
	}
}

func (l *MemorySaleLedger) Append(_ context.Context, sale *models.Sale) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prepareSale(sale)
	if _, exists := l.byID[sale.ID]; exists {
		return models.PersistenceError("append sale", errors.New("duplicate sale id"))
	}
	l.insert(*sale)
	return nil
}

func (l *MemorySaleLedger) Reverse(_ context.Context, saleID uuid.UUID, reason string) (*models.Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, exists := l.byID[saleID]
	if !exists {
		return nil, models.ErrRecordNotFound
	}
	original := l.entries[idx]
	if original.IsReversal() {
		return nil, models.PersistenceError("reverse sale", errors.New("cannot reverse a reversal entry"))
	}

	if existingID, reversed := l.reversals[saleID]; reversed {
		existing := l.entries[l.byID[existingID]]
		return &existing, nil
	}

	reversal := newReversal(&original, reason)
	l.insert(*reversal)
	l.reversals[saleID] = reversal.ID
	return reversal, nil
}

func (l *MemorySaleLedger) insert(sale models.Sale) {
	l.byID[sale.ID] = len(l.entries)
	l.entries = append(l.entries, sale)
}

func (l *MemorySaleLedger) Get(_ context.Context, saleID uuid.UUID) (*models.Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, exists := l.byID[saleID]
	if !exists {
		return nil, models.ErrRecordNotFound
	}
	sale := l.entries[idx]
	return &sale, nil
}

func (l *MemorySaleLedger) List(_ context.Context, filter models.SaleFilter, params utils.PaginationParams) ([]models.Sale, int64, error) {
	l.mu.RLock()
	matched := make([]models.Sale, 0, len(l.entries))
	for _, sale := range l.entries {
		if filter.BuyerID != nil && sale.BuyerID != *filter.BuyerID {
			continue
		}
		if filter.SellerID != nil && sale.SellerID != *filter.SellerID {
			continue
		}
		if filter.Kind != nil && sale.Kind != *filter.Kind {
			continue
		}
		matched = append(matched, sale)
	}
	l.mu.RUnlock()

	// entries are in insertion order, which is creation order
	if params.Order != "asc" {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	start, end := utils.PageBounds(params, len(matched))
	return matched[start:end], int64(len(matched)), nil
}
