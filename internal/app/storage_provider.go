package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/platform/neo4jdb"
	"github.com/mnemograph/mnemograph-backend/internal/platform/qdranthttp"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
	"github.com/mnemograph/mnemograph-backend/internal/storage/hybrid"
	"github.com/mnemograph/mnemograph-backend/internal/storage/memstore"
	"github.com/mnemograph/mnemograph-backend/internal/storage/neo4jstore"
	"github.com/mnemograph/mnemograph-backend/internal/storage/qdrantstore"
)

const (
	StorageBootstrapInvalidType        = "invalid_storage_type"
	StorageBootstrapMissingCredentials = "missing_credentials"
	StorageBootstrapConnectFailed      = "connect_failed"
	StorageBootstrapInitFailed         = "init_failed"
)

// StorageBootstrapError reports why the configured backend could not come
// up. MissingKeys names the env variables that must be set for the chosen
// STORAGE_TYPE.
type StorageBootstrapError struct {
	Code        string
	StorageType string
	MissingKeys []string
	Cause       error
}

func (e *StorageBootstrapError) Error() string {
	if e == nil {
		return "storage bootstrap error"
	}
	msg := fmt.Sprintf("storage bootstrap [%s] type=%q", e.Code, e.StorageType)
	if len(e.MissingKeys) > 0 {
		msg += " missing=" + strings.Join(e.MissingKeys, ",")
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StorageBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveStorage builds the adapter named by STORAGE_TYPE and runs its
// Initialize. memory needs no credentials; the others fail fast with the
// keys they need.
func resolveStorage(ctx context.Context, log *logger.Logger, cfg Config) (storage.Adapter, error) {
	var (
		store storage.Adapter
		err   error
	)
	switch cfg.StorageType {
	case "memory":
		store = memstore.New()
	case "neo4j":
		store, err = newNeo4jStore(log)
	case "qdrant":
		store, err = newQdrantStore(log)
	case "hybrid":
		store, err = newHybridStore(log)
	default:
		return nil, &StorageBootstrapError{
			Code:        StorageBootstrapInvalidType,
			StorageType: cfg.StorageType,
		}
	}
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(ctx); err != nil {
		_ = store.Disconnect(ctx)
		return nil, &StorageBootstrapError{
			Code:        StorageBootstrapInitFailed,
			StorageType: cfg.StorageType,
			Cause:       err,
		}
	}
	log.Info("storage backend ready", "type", store.Type())
	return store, nil
}

func newNeo4jStore(log *logger.Logger) (storage.Adapter, error) {
	dbCfg := neo4jdb.ResolveConfigFromEnv()
	var missing []string
	if dbCfg.URI == "" {
		missing = append(missing, "NEO4J_URI")
	}
	if dbCfg.Password == "" {
		missing = append(missing, "NEO4J_PASSWORD")
	}
	if len(missing) > 0 {
		return nil, &StorageBootstrapError{
			Code:        StorageBootstrapMissingCredentials,
			StorageType: "neo4j",
			MissingKeys: missing,
		}
	}
	client, err := neo4jdb.New(log, dbCfg)
	if err != nil {
		return nil, &StorageBootstrapError{
			Code:        StorageBootstrapConnectFailed,
			StorageType: "neo4j",
			Cause:       err,
		}
	}
	return neo4jstore.New(client, log)
}

func newQdrantStore(log *logger.Logger) (storage.Adapter, error) {
	httpCfg, err := qdranthttp.ResolveConfigFromEnv()
	if err != nil {
		var cfgErr *qdranthttp.ConfigError
		if errors.As(err, &cfgErr) && cfgErr.Code == qdranthttp.ConfigErrorMissingURL {
			return nil, &StorageBootstrapError{
				Code:        StorageBootstrapMissingCredentials,
				StorageType: "qdrant",
				MissingKeys: []string{"QDRANT_URL"},
				Cause:       err,
			}
		}
		return nil, &StorageBootstrapError{
			Code:        StorageBootstrapConnectFailed,
			StorageType: "qdrant",
			Cause:       err,
		}
	}
	client, err := qdranthttp.New(log, httpCfg)
	if err != nil {
		return nil, &StorageBootstrapError{
			Code:        StorageBootstrapConnectFailed,
			StorageType: "qdrant",
			Cause:       err,
		}
	}
	return qdrantstore.New(client, qdrantstore.ResolveConfigFromEnv(), log)
}

func newHybridStore(log *logger.Logger) (storage.Adapter, error) {
	graph, err := newNeo4jStore(log)
	if err != nil {
		return nil, rebadgeBootstrapError(err, "hybrid")
	}
	vector, err := newQdrantStore(log)
	if err != nil {
		return nil, rebadgeBootstrapError(err, "hybrid")
	}
	return hybrid.New(graph, vector, log)
}

// rebadgeBootstrapError keeps the inner code and keys but labels the error
// with the composite type that was actually requested.
func rebadgeBootstrapError(err error, storageType string) error {
	if be, ok := err.(*StorageBootstrapError); ok {
		be.StorageType = storageType
		return be
	}
	return err
}
