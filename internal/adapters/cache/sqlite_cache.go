package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gottmail/toneguard/internal/core"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the AnalysisCache interface.
// It stores fingerprints, scores and reasoning only — fingerprints are
// one-way derivations, so a durable cache never persists message content.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_cache (
			fingerprint TEXT PRIMARY KEY,
			toxicity_score REAL,
			threat_level TEXT,
			horsemen TEXT,
			reasoning TEXT,
			source TEXT,
			model_used TEXT,
			last_seen TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_analysis_expires_at ON analysis_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached entry for a fingerprint
func (c *SQLiteCache) Get(ctx context.Context, fingerprint string) (*core.CacheEntry, error) {
	var (
		score             float64
		threatLevel       string
		horsemenJSON      string
		reasoning         string
		source            string
		modelUsed         string
		lastSeen, expires time.Time
	)

	err := c.db.QueryRowContext(ctx, `
		SELECT toxicity_score, threat_level, horsemen, reasoning, source, model_used, last_seen, expires_at
		FROM analysis_cache
		WHERE fingerprint = ?
	`, fingerprint).Scan(&score, &threatLevel, &horsemenJSON, &reasoning, &source, &modelUsed, &lastSeen, &expires)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	if time.Now().After(expires) {
		return nil, ErrExpired
	}

	var horsemen []core.HorsemanDetection
	if horsemenJSON != "" {
		if err := json.Unmarshal([]byte(horsemenJSON), &horsemen); err != nil {
			return nil, fmt.Errorf("failed to decode cached detections: %w", err)
		}
	}

	return &core.CacheEntry{
		Fingerprint: fingerprint,
		Result: core.AnalysisResult{
			ToxicityScore: score,
			ThreatLevel:   core.ThreatLevel(threatLevel),
			Horsemen:      horsemen,
			Reasoning:     reasoning,
			Source:        core.AnalysisSource(source),
			AnalyzedAt:    lastSeen,
			ModelUsed:     modelUsed,
		},
		LastSeen:  lastSeen,
		ExpiresAt: expires,
	}, nil
}

// Set stores a cache entry
func (c *SQLiteCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	horsemenJSON, err := json.Marshal(entry.Result.Horsemen)
	if err != nil {
		return fmt.Errorf("failed to encode detections: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analysis_cache
			(fingerprint, toxicity_score, threat_level, horsemen, reasoning, source, model_used, last_seen, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Fingerprint, entry.Result.ToxicityScore, string(entry.Result.ThreatLevel),
		string(horsemenJSON), entry.Result.Reasoning, string(entry.Result.Source),
		entry.Result.ModelUsed, entry.LastSeen, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *SQLiteCache) Delete(ctx context.Context, fingerprint string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE fingerprint = ?`, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE expires_at < ?`, time.Now())
	if err != nil {
		return fmt.Errorf("failed to clean up cache: %w", err)
	}

	if count, err := res.RowsAffected(); err == nil {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", count))
	}
	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *SQLiteCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
