package reliability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rotation/internal/database"
	testingpkg "github.com/aristath/rotation/internal/testing"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	times   map[string]time.Time
	failPut error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, times: map[string]time.Time{}}
}

func (m *memoryStore) Upload(ctx context.Context, key string, body io.Reader) error {
	if m.failPut != nil {
		return m.failPut
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var quiet = zerolog.New(nil).Level(zerolog.Disabled)

func TestBackupService_UploadsLedgerSnapshot(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	defer cleanup()

	store := newMemoryStore()
	svc := NewBackupService(db, store, "/rotation/", quiet)
	svc.now = func() time.Time { return time.Date(2024, 6, 28, 19, 30, 5, 0, time.UTC) }

	info, err := svc.Backup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotation/ledger-20240628-193005.db", info.Key)
	assert.Greater(t, info.SizeBytes, int64(0))

	data := store.objects[info.Key]
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("SQLite format 3")))
}

func TestBackupService_DisabledWithoutStore(t *testing.T) {
	svc := NewBackupService(nil, nil, "", quiet)
	assert.False(t, svc.Enabled())

	info, err := svc.Backup(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, info)

	var nilSvc *BackupService
	assert.False(t, nilSvc.Enabled())
}

func TestBackupService_UploadFailure(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	defer cleanup()

	store := newMemoryStore()
	store.failPut = errors.New("access denied")
	svc := NewBackupService(db, store, "", quiet)

	_, err := svc.Backup(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestBackupService_RotateKeepsNewestThree(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	for _, stamp := range []string{"20240101-000000", "20240201-000000", "20240301-000000", "20240601-000000", "20240615-000000"} {
		store.objects["bk/ledger-"+stamp+".db"] = []byte("x")
	}
	store.objects["bk/ledger-garbage.db"] = []byte("x")

	svc := NewBackupService(nil, store, "bk", quiet)
	svc.now = func() time.Time { return now }

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 5)
	assert.Equal(t, "bk/ledger-20240615-000000.db", backups[0].Key)

	deleted, err := svc.RotateOldBackups(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, []string{
		"bk/ledger-20240301-000000.db",
		"bk/ledger-20240601-000000.db",
		"bk/ledger-20240615-000000.db",
		"bk/ledger-garbage.db",
	}, store.keys())
}

func TestS3Store_UploadAndDelete(t *testing.T) {
	var mu sync.Mutex
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:          "backups",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.NoError(t, err)
	assert.Equal(t, "backups", store.Bucket())

	require.NoError(t, store.Upload(context.Background(), "rotation/ledger.db", strings.NewReader("payload")))
	require.NoError(t, store.Delete(context.Background(), "rotation/ledger.db"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"PUT /backups/rotation/ledger.db",
		"DELETE /backups/rotation/ledger.db",
	}, requests)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}

func TestMaintenanceJob_Run(t *testing.T) {
	history, cleanupHistory := testingpkg.NewTestDB(t, "history")
	defer cleanupHistory()
	ledgerDB, cleanupLedger := testingpkg.NewTestDB(t, "ledger")
	defer cleanupLedger()

	job := NewMaintenanceJob(
		[]*database.DB{history, ledgerDB},
		NewBackupService(ledgerDB, newMemoryStore(), "", quiet),
		t.TempDir(),
		30,
		quiet,
	)

	assert.Equal(t, "maintenance", job.Name())
	assert.NoError(t, job.Run())
}
