package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

// ErrSwapAlreadyExists ...
var ErrSwapAlreadyExists = errors.New("swap already exists")

// SwapRepository persists swap sessions keyed by id in a badger store.
type SwapRepository struct {
	store     *badgerhold.Store
	quitChan  chan struct{}
	closeOnce *sync.Once
}

// NewSwapRepository opens (or creates if not exists) the swap store in the
// "swaps" subdir of baseDbDir. An empty baseDbDir makes the store in-memory.
func NewSwapRepository(
	baseDbDir string, logger badger.Logger,
) (*SwapRepository, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "swaps")
	}

	quitChan := make(chan struct{})
	store, err := createDb(dbDir, logger, quitChan)
	if err != nil {
		return nil, fmt.Errorf("opening swap db: %w", err)
	}
	return &SwapRepository{store, quitChan, &sync.Once{}}, nil
}

func (r *SwapRepository) AddSwap(
	_ context.Context, swap *domain.SwapSession,
) error {
	if err := r.store.Insert(swap.ID, swap); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return ErrSwapAlreadyExists
		}
		return err
	}
	return nil
}

func (r *SwapRepository) GetSwap(
	_ context.Context, id string,
) (*domain.SwapSession, error) {
	var swap domain.SwapSession
	if err := r.store.Get(id, &swap); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrSwapNotFound
		}
		return nil, err
	}
	return &swap, nil
}

func (r *SwapRepository) GetAllSwaps(
	_ context.Context,
) ([]*domain.SwapSession, error) {
	return r.findSwaps(nil)
}

func (r *SwapRepository) GetActiveSwaps(
	_ context.Context,
) ([]*domain.SwapSession, error) {
	query := badgerhold.Where("IsFinished").Eq(false).And("IsRefunded").Eq(false)
	return r.findSwaps(query)
}

// UpdateSwap reads, modifies and writes back the session within a single
// badger transaction.
func (r *SwapRepository) UpdateSwap(
	_ context.Context,
	id string,
	updateFn func(s *domain.SwapSession) (*domain.SwapSession, error),
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		var swap domain.SwapSession
		if err := r.store.TxGet(tx, id, &swap); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrSwapNotFound
			}
			return err
		}

		updatedSwap, err := updateFn(&swap)
		if err != nil {
			return err
		}

		return r.store.TxUpdate(tx, id, updatedSwap)
	})
}

// Close stops the value log GC and closes the store.
func (r *SwapRepository) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.quitChan)
		err = r.store.Close()
	})
	return err
}

func (r *SwapRepository) findSwaps(
	query *badgerhold.Query,
) ([]*domain.SwapSession, error) {
	var swaps []domain.SwapSession
	if err := r.store.Find(&swaps, query); err != nil {
		return nil, err
	}

	res := make([]*domain.SwapSession, 0, len(swaps))
	for i := range swaps {
		res = append(res, &swaps[i])
	}
	return res, nil
}
