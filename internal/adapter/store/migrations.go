package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"coursesearch/config"
)

// CurrentSchemaVersion is the cache file format version.
// Increment this when the key or value encoding changes.
const CurrentSchemaVersion = 1

var (
	bucketMeta       = []byte("meta")
	keySchemaVersion = []byte("schema_version")
	keyConfigHash    = []byte("config_hash")
)

// SchemaInfo stores schema version and configuration hash.
type SchemaInfo struct {
	Version    int    `json:"version"`
	ConfigHash string `json:"config_hash"`
}

// GetSchemaInfo reads the stored schema info. A fresh file reports version 0.
func (c *EmbeddingCache) GetSchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}

		if versionData := b.Get(keySchemaVersion); versionData != nil {
			if err := json.Unmarshal(versionData, &info.Version); err != nil {
				info.Version = 0
			}
		}
		if hashData := b.Get(keyConfigHash); hashData != nil {
			info.ConfigHash = string(hashData)
		}
		return nil
	})
	return &info, err
}

func setSchemaInfo(tx *bbolt.Tx, info *SchemaInfo) error {
	b, err := tx.CreateBucketIfNotExists(bucketMeta)
	if err != nil {
		return err
	}

	versionData, err := json.Marshal(info.Version)
	if err != nil {
		return err
	}
	if err := b.Put(keySchemaVersion, versionData); err != nil {
		return err
	}
	return b.Put(keyConfigHash, []byte(info.ConfigHash))
}

// ComputeConfigHash fingerprints the settings that decide what vector a title
// gets. Two endpoints may serve different models under the same name, so the
// endpoint is part of it.
func ComputeConfigHash(cfg config.EmbeddingConfig) string {
	relevant := struct {
		Provider  string `json:"provider"`
		Model     string `json:"model"`
		BaseURL   string `json:"base_url"`
		Dimension int    `json:"dimension"`
	}{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
	}
	if cfg.Provider == "hash" {
		relevant.Model = ""
		relevant.Dimension = cfg.Dimension
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// MigrationResult describes what Migrate did.
type MigrationResult struct {
	Cleared    bool
	OldVersion int
	NewVersion int
	Reason     string
}

// Migrate brings the cache up to the current schema for the given
// fingerprint. Vectors written by another schema version or another embedding
// setup are dropped; they would otherwise be served for the wrong model.
func (c *EmbeddingCache) Migrate(configHash string) (*MigrationResult, error) {
	info, err := c.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema info: %w", err)
	}

	result := &MigrationResult{
		OldVersion: info.Version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case info.Version == 0:
		result.Reason = "initializing schema version"
	case info.Version != CurrentSchemaVersion:
		result.Cleared = true
		result.Reason = fmt.Sprintf("schema change from v%d to v%d", info.Version, CurrentSchemaVersion)
	case info.ConfigHash != "" && info.ConfigHash != configHash:
		result.Cleared = true
		result.Reason = "embedding configuration changed"
	case info.ConfigHash == configHash:
		return result, nil
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		if result.Cleared {
			if err := tx.DeleteBucket(bucketEmbeddings); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(bucketEmbeddings); err != nil {
				return err
			}
		}
		return setSchemaInfo(tx, &SchemaInfo{Version: CurrentSchemaVersion, ConfigHash: configHash})
	})
	if err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return result, nil
}
