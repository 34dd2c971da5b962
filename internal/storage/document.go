package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/julianstephens/shiftbell/internal/errors"
)

// readDocument decodes key into v. found is false when the key was never written.
// Every other failure is a StoreReadFailure.
func readDocument(ctx context.Context, rs RecordStore, key string, v any) (found bool, err error) {
	raw, err := rs.GetRecord(ctx, key)
	if errors.Is(err, apperrors.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.ReadError(key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, apperrors.ReadError(key, fmt.Errorf("decode: %w", err))
	}
	return true, nil
}

func writeDocument(ctx context.Context, rs RecordStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperrors.WriteError(key, fmt.Errorf("encode: %w", err))
	}
	if err := rs.PutRecord(ctx, key, raw); err != nil {
		return apperrors.WriteError(key, err)
	}
	return nil
}
