package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Retrieve when no snapshot has the name
var ErrNotFound = errors.New("snapshot not found")

// StorageInterface defines the contract for persisting report snapshots
type StorageInterface interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

var (
	_ StorageInterface = (*AzureStorage)(nil)
	_ StorageInterface = (*LocalStorage)(nil)
)
