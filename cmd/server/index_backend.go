package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sleepwarp.ai/internal/persistence/indexdb"
	"sleepwarp.ai/internal/persistence/snapshot"
	"sleepwarp.ai/internal/sim/tuning"
	"sleepwarp.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.WarpLogger
	Close() error
	UpsertTuning(tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
	RecordSnapshotState(snap snapshot.SnapshotV1)
}

// openRuntimeIndex returns the read-model index for one partition. The sqlite
// path is returned too so admin handlers can query it; it is empty for d1.
func openRuntimeIndex(worldDir, worldID string, disableDB bool, logger *log.Logger) (runtimeIndex, string, error) {
	if disableDB {
		return nil, "", nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("SW_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, "", nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", "world.sqlite")
		idx, err := indexdb.OpenSQLite(dbPath)
		if err != nil {
			return nil, "", err
		}
		return idx, dbPath, nil
	case "d1":
		endpoint := strings.TrimSpace(os.Getenv("SW_INDEX_D1_INGEST_URL"))
		token := strings.TrimSpace(os.Getenv("SW_INDEX_D1_TOKEN"))
		if endpoint == "" {
			return nil, "", fmt.Errorf("SW_INDEX_BACKEND=d1 but SW_INDEX_D1_INGEST_URL is empty")
		}
		idx, err := indexdb.OpenD1(indexdb.D1Config{
			Endpoint:      endpoint,
			Token:         token,
			WorldID:       worldID,
			BatchSize:     envInt("SW_INDEX_D1_BATCH_SIZE", 128),
			FlushInterval: time.Duration(envInt("SW_INDEX_D1_FLUSH_MS", 500)) * time.Millisecond,
			MaxRetained:   envInt("SW_INDEX_D1_MAX_RETAINED", 4096),
			Logger:        logger,
		})
		if err != nil {
			return nil, "", err
		}
		return idx, "", nil
	default:
		return nil, "", fmt.Errorf("unsupported SW_INDEX_BACKEND: %s", backend)
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
