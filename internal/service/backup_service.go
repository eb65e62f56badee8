package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
	applog "github.com/noah-isme/equipment-tracker/pkg/logger"
	"github.com/noah-isme/equipment-tracker/pkg/storage"
)

const backupPattern = "equipment_backup_*.db"

var sqliteHeader = []byte("SQLite format 3\x00")

type backupStorage interface {
	Resolve(name string) (string, error)
	SaveStream(name string, r io.Reader) (string, error)
	List(pattern string) ([]storage.FileInfo, error)
}

// storeLocker hands out the store's only connection, which blocks every other
// statement while a snapshot is copied.
type storeLocker interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// BackupService copies the single-file store to and from timestamped snapshots.
type BackupService struct {
	dbPath  string
	backups backupStorage
	store   storeLocker
	cache   cacheInvalidator
	logger  *zap.Logger
	now     func() time.Time
}

// NewBackupService constructs the backup service for the store at dbPath.
func NewBackupService(dbPath string, backups backupStorage, store storeLocker, cache cacheInvalidator, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{dbPath: dbPath, backups: backups, store: store, cache: cache, logger: logger, now: time.Now}
}

// Create writes equipment_backup_<YYYYMMDD_HHMMSS>.db.
func (s *BackupService) Create(ctx context.Context) (*dto.BackupInfo, error) {
	name := fmt.Sprintf("equipment_backup_%s.db", s.now().Format("20060102_150405"))

	release, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	src, err := os.Open(s.dbPath)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to open database file")
	}
	defer src.Close() //nolint:errcheck

	path, err := s.backups.SaveStream(name, src)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to write backup")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to stat backup")
	}

	applog.FromContext(ctx, s.logger).Info("backup created", zap.String("path", path), zap.Int64("size_bytes", info.Size()))
	return &dto.BackupInfo{Filename: name, Path: path, SizeBytes: info.Size(), CreatedAt: info.ModTime().UTC()}, nil
}

// List returns the available snapshots, newest first.
func (s *BackupService) List(_ context.Context) ([]dto.BackupInfo, error) {
	files, err := s.backups.List(backupPattern)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list backups")
	}
	result := make([]dto.BackupInfo, 0, len(files))
	for _, f := range files {
		result = append(result, dto.BackupInfo{Filename: f.Name, Path: f.Path, SizeBytes: f.Size, CreatedAt: f.ModTime.UTC()})
	}
	return result, nil
}

// Restore overwrites the store with the named snapshot.
func (s *BackupService) Restore(ctx context.Context, req dto.RestoreBackupRequest) (*dto.BackupInfo, error) {
	path, err := s.backups.Resolve(req.Filename)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid backup name")
	}

	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("backup %s not found", req.Filename))
		}
		return nil, appErrors.Storage(err, "failed to open backup")
	}
	defer src.Close() //nolint:errcheck

	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(src, header); err != nil || !bytes.Equal(header, sqliteHeader) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not a SQLite database", req.Filename))
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Storage(err, "failed to read backup")
	}

	release, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	size, err := overwrite(s.dbPath, src)
	if err != nil {
		applog.FromContext(ctx, s.logger).Error("restore failed", zap.String("backup", req.Filename), zap.Error(err))
		return nil, appErrors.Storage(err, "failed to restore backup")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, dashboardCachePattern)
	}
	applog.FromContext(ctx, s.logger).Info("backup restored", zap.String("backup", req.Filename), zap.String("database", s.dbPath))

	info, err := os.Stat(path)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to stat backup")
	}
	return &dto.BackupInfo{Filename: req.Filename, Path: path, SizeBytes: size, CreatedAt: info.ModTime().UTC()}, nil
}

func (s *BackupService) lock(ctx context.Context) (func(), error) {
	if s.store == nil {
		return func() {}, nil
	}
	conn, err := s.store.Conn(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to acquire database connection")
	}
	return func() { _ = conn.Close() }, nil
}

func overwrite(path string, src io.Reader) (n int64, err error) {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open database file: %w", err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close database file: %w", cerr)
		}
	}()
	if n, err = io.Copy(dst, src); err != nil {
		return n, fmt.Errorf("copy backup: %w", err)
	}
	if err = dst.Sync(); err != nil {
		return n, fmt.Errorf("sync database file: %w", err)
	}
	return n, nil
}
