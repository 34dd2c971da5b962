package storage

import (
	"context"

	"github.com/julianstephens/shiftbell/internal/constants"
	"github.com/julianstephens/shiftbell/internal/models"
)

// ReconciliationStore persists the record of the last completed reconciliation.
// Only the reconciler writes it.
type ReconciliationStore struct {
	rs RecordStore
}

func NewReconciliationStore(rs RecordStore) *ReconciliationStore {
	return &ReconciliationStore{rs: rs}
}

// Get returns the zero record when no run has completed yet.
func (s *ReconciliationStore) Get(ctx context.Context) (models.ReconciliationRecord, error) {
	var rec models.ReconciliationRecord
	if _, err := readDocument(ctx, s.rs, constants.ReconciliationRecordKey, &rec); err != nil {
		return models.ReconciliationRecord{}, err
	}
	return rec, nil
}

func (s *ReconciliationStore) Set(ctx context.Context, rec models.ReconciliationRecord) error {
	return writeDocument(ctx, s.rs, constants.ReconciliationRecordKey, rec)
}
