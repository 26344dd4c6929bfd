package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rafadias/shopee-scraper/internal/models"
)

// FileStore keeps captured records in a single JSON file. Used when running
// without Postgres; everything is held in memory and flushed on every save.
type FileStore struct {
	mu       sync.RWMutex
	records  map[string]*models.ProductRecord
	filename string
}

func NewFileStore(filename string) (*FileStore, error) {
	fs := &FileStore{
		records:  make(map[string]*models.ProductRecord),
		filename: filename,
	}

	if err := fs.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return fs, nil
}

func (fs *FileStore) Lookup(ctx context.Context, itemID string) (*models.ProductRecord, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	rec, ok := fs.records[itemID]
	if !ok {
		return nil, nil
	}

	clone := *rec
	return &clone, nil
}

func (fs *FileStore) Save(ctx context.Context, rec *models.ProductRecord) error {
	if rec.ItemID == "" {
		return fmt.Errorf("record has no item ID")
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	clone := *rec
	fs.records[rec.ItemID] = &clone

	return fs.flush()
}

func (fs *FileStore) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.records)
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.filename)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &fs.records); err != nil {
		return fmt.Errorf("failed to parse %s: %w", fs.filename, err)
	}
	return nil
}

func (fs *FileStore) flush() error {
	data, err := json.MarshalIndent(fs.records, "", "  ")
	if err != nil {
		return err
	}

	tmp := fs.filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, fs.filename)
}
