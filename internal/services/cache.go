package services

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ecommerce-dashboard/internal/models"
)

const cacheVersion = "v2"

// snapshot is the parsed transaction table as read from the CSV. Computed
// views are never cached.
type snapshot struct {
	Transactions []models.Transaction
	CreatedAt    time.Time
}

func (a *Analytics) getCacheFilename(csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return filepath.Join(a.cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (a *Analytics) saveToCache(csvPath string, data []models.Transaction) error {
	if err := os.MkdirAll(a.cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(a.getCacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snapshot{
		Transactions: data,
		CreatedAt:    time.Now(),
	})
}

func (a *Analytics) loadFromCache(csvPath string) (*snapshot, error) {
	file, err := os.Open(a.getCacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data snapshot
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
