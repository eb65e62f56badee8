package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
	"github.com/noah-isme/equipment-tracker/pkg/storage"
)

func fakeDatabase(body string) []byte {
	return append(append([]byte{}, sqliteHeader...), body...)
}

func newBackupServiceUnderTest(t *testing.T) (*BackupService, string, *storage.LocalStorage, *recordingInvalidator) {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(root, "equipment.db")
	require.NoError(t, os.WriteFile(dbPath, fakeDatabase("live"), 0o644))

	backups, err := storage.NewLocalStorage(filepath.Join(root, "backups"))
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	cache := &recordingInvalidator{}
	svc := NewBackupService(dbPath, backups, db, cache, nil)
	svc.now = func() time.Time { return time.Date(2024, 8, 30, 9, 15, 0, 0, time.UTC) }
	return svc, dbPath, backups, cache
}

func TestBackupServiceCreateAndList(t *testing.T) {
	svc, _, backups, _ := newBackupServiceUnderTest(t)
	ctx := context.Background()

	info, err := svc.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "equipment_backup_20240830_091500.db", info.Filename)
	assert.Equal(t, int64(len(fakeDatabase("live"))), info.SizeBytes)

	copied, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.Equal(t, fakeDatabase("live"), copied)

	older := filepath.Join(backups.Dir(), "equipment_backup_20240101_000000.db")
	require.NoError(t, os.WriteFile(older, fakeDatabase("old"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))
	require.NoError(t, os.WriteFile(filepath.Join(backups.Dir(), "notes.txt"), []byte("x"), 0o644))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "equipment_backup_20240830_091500.db", list[0].Filename)
	assert.Equal(t, "equipment_backup_20240101_000000.db", list[1].Filename)
}

func TestBackupServiceRestoreOverwritesStore(t *testing.T) {
	svc, dbPath, backups, cache := newBackupServiceUnderTest(t)
	name := "equipment_backup_20240101_000000.db"
	_, err := backups.Save(name, fakeDatabase("snapshot"))
	require.NoError(t, err)

	info, err := svc.Restore(context.Background(), dto.RestoreBackupRequest{Filename: name})
	require.NoError(t, err)
	assert.Equal(t, name, info.Filename)

	restored, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, fakeDatabase("snapshot"), restored)
	assert.Equal(t, []string{dashboardCachePattern}, cache.patterns)
}

func TestBackupServiceRestoreRejections(t *testing.T) {
	svc, dbPath, backups, _ := newBackupServiceUnderTest(t)
	ctx := context.Background()
	_, err := backups.Save("equipment_backup_bad.db", []byte("definitely not sqlite"))
	require.NoError(t, err)

	_, err = svc.Restore(ctx, dto.RestoreBackupRequest{Filename: "../equipment.db"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Restore(ctx, dto.RestoreBackupRequest{Filename: "equipment_backup_bad.db"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Restore(ctx, dto.RestoreBackupRequest{Filename: "equipment_backup_missing.db"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	live, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, fakeDatabase("live"), live)
}
