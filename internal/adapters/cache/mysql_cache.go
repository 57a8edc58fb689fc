package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gottmail/toneguard/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the AnalysisCache interface,
// for deployments sharing one fingerprint cache across filter instances.
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_cache (
			fingerprint VARCHAR(64) PRIMARY KEY,
			toxicity_score DOUBLE,
			threat_level VARCHAR(16),
			horsemen TEXT,
			reasoning TEXT,
			source VARCHAR(16),
			model_used VARCHAR(64),
			last_seen TIMESTAMP,
			expires_at TIMESTAMP,
			INDEX idx_analysis_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached entry for a fingerprint
func (c *MySQLCache) Get(ctx context.Context, fingerprint string) (*core.CacheEntry, error) {
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
func (c *MySQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	horsemenJSON, err := json.Marshal(entry.Result.Horsemen)
	if err != nil {
		return fmt.Errorf("failed to encode detections: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		REPLACE INTO analysis_cache
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
func (c *MySQLCache) Delete(ctx context.Context, fingerprint string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE fingerprint = ?`, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
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
func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}
