package reliability

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rotation/internal/database"
)

const (
	backupFilePrefix = "ledger-"
	backupFileSuffix = ".db"
	backupTimeLayout = "20060102-150405"
	minBackupsToKeep = 3
)

// BackupInfo describes one uploaded backup
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

// BackupService uploads snapshots of the ledger database to object storage.
// A nil store disables it.
type BackupService struct {
	db     *database.DB
	store  ObjectStore
	prefix string
	now    func() time.Time
	log    zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, store ObjectStore, prefix string, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:     db,
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
		log:    log.With().Str("service", "backup").Logger(),
	}
}

// Enabled reports whether a store is configured
func (s *BackupService) Enabled() bool {
	return s != nil && s.store != nil
}

func (s *BackupService) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Backup snapshots the ledger and uploads it as ledger-YYYYMMDD-HHMMSS.db
func (s *BackupService) Backup(ctx context.Context) (*BackupInfo, error) {
	if !s.Enabled() {
		return nil, nil
	}

	start := s.now().UTC()
	name := backupFilePrefix + start.Format(backupTimeLayout) + backupFileSuffix

	stagingDir, err := os.MkdirTemp("", "rotation-backup-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	localPath := filepath.Join(stagingDir, name)
	if err := s.db.BackupTo(ctx, localPath); err != nil {
		return nil, err
	}

	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	key := s.key(name)
	if err := s.store.Upload(ctx, key, file); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("key", key).
		Int64("size_bytes", stat.Size()).
		Dur("duration", time.Since(start)).
		Msg("Ledger backup uploaded")

	return &BackupInfo{Key: key, Timestamp: start, SizeBytes: stat.Size()}, nil
}

// ListBackups returns uploaded backups, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	if !s.Enabled() {
		return []BackupInfo{}, nil
	}

	objects, err := s.store.List(ctx, s.key(backupFilePrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		name := path.Base(obj.Key)
		if !strings.HasPrefix(name, backupFilePrefix) || !strings.HasSuffix(name, backupFileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupFilePrefix), backupFileSuffix)
		ts, err := time.Parse(backupTimeLayout, stamp)
		if err != nil {
			s.log.Warn().Str("key", obj.Key).Msg("Failed to parse timestamp from backup key")
			continue
		}
		backups = append(backups, BackupInfo{Key: obj.Key, Timestamp: ts, SizeBytes: obj.Size})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups deletes backups older than retentionDays, always keeping
// the newest three. A retention of zero keeps everything.
func (s *BackupService) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	if !s.Enabled() || retentionDays <= 0 {
		return 0, nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= minBackupsToKeep {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, b := range backups[minBackupsToKeep:] {
		if !b.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, b.Key); err != nil {
			s.log.Error().Err(err).Str("key", b.Key).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")
	return deleted, nil
}
