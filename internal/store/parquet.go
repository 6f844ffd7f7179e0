package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// Compile-time interface check.
var _ StatementReader = (*ParquetStore)(nil)

// ParquetStore reads a statement exported as up to three Parquet files, one
// per record type. An empty path means the statement has no such records.
type ParquetStore struct {
	PositionsPath string
	ActivityPath  string
	BalancesPath  string
}

// NewParquetStore creates a ParquetStore over the given files.
func NewParquetStore(positions, activity, balances string) *ParquetStore {
	return &ParquetStore{
		PositionsPath: positions,
		ActivityPath:  activity,
		BalancesPath:  balances,
	}
}

// ReadPositions reads the positions file.
func (s *ParquetStore) ReadPositions(_ context.Context) ([]PositionRecord, error) {
	return readOptional[PositionRecord](s.PositionsPath)
}

// ReadActivity reads the activity file.
func (s *ParquetStore) ReadActivity(_ context.Context) ([]ActivityRecord, error) {
	return readOptional[ActivityRecord](s.ActivityPath)
}

// ReadBalances reads the balances file.
func (s *ParquetStore) ReadBalances(_ context.Context) ([]BalanceRecord, error) {
	return readOptional[BalanceRecord](s.BalancesPath)
}

func readOptional[T any](path string) ([]T, error) {
	if path == "" {
		return nil, nil
	}
	rows, err := ReadParquetFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

// WriteParquetFile writes records to path, creating parent directories.
func WriteParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

// ReadParquetFile reads every row of the Parquet file at path.
func ReadParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
