package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"ragchat/internal/domain"
)

// currentSchemaVersion is the on-disk index format version.
// Increment when making breaking changes to the storage format.
const currentSchemaVersion = 1

var keySchemaInfo = []byte("schema_info")

// schemaInfo stamps an index with everything needed to detect a stale or
// incompatible build before any search runs: format version, embedder
// identity and the expected record count of the aligned buckets.
type schemaInfo struct {
	Version   int    `json:"version"`
	Dimension int    `json:"dimension"`
	Model     string `json:"model"`
	Count     int    `json:"count"`
}

func writeSchemaInfo(tx *bbolt.Tx, info schemaInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keySchemaInfo, data)
}

func readSchemaInfo(tx *bbolt.Tx) (schemaInfo, error) {
	var info schemaInfo

	b := tx.Bucket(bucketMeta)
	if b == nil {
		return info, fmt.Errorf("%w: no index metadata", domain.ErrIndexNotFound)
	}

	data := b.Get(keySchemaInfo)
	if data == nil {
		return info, fmt.Errorf("%w: no index metadata", domain.ErrIndexNotFound)
	}

	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("index corrupted: bad schema info: %w", err)
	}

	return info, nil
}
