package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	started := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	h := Header{
		SessionID: "0b1e0f9a-6a70-4c2a-9f25-0c4c1f1a2b3c",
		Kind:      "simulator",
		Target:    "TEST-UDID-123",
		App:       "com.example.myapp",
		Mode:      "structured",
		StartedAt: started,
	}

	parsed, ok := ParseHeader(h.line())
	require.True(t, ok)
	assert.Equal(t, h.SessionID, parsed.SessionID)
	assert.Equal(t, "simulator", parsed.Kind)
	assert.Equal(t, "TEST-UDID-123", parsed.Target)
	assert.Equal(t, "com.example.myapp", parsed.App)
	assert.Equal(t, "structured", parsed.Mode)
	assert.True(t, started.Equal(parsed.StartedAt))
}

func TestParseHeader(t *testing.T) {
	t.Run("rejects ordinary log lines", func(t *testing.T) {
		_, ok := ParseHeader("2026-08-20 10:30:00 Default MyApp[123] starting up")
		assert.False(t, ok)
	})

	t.Run("rejects header without session id", func(t *testing.T) {
		_, ok := ParseHeader("# xctap capture kind=simulator app=com.example.myapp")
		assert.False(t, ok)
	})

	t.Run("tolerates unknown keys", func(t *testing.T) {
		h, ok := ParseHeader("# xctap capture session=abc extra=1 app=com.example.myapp")
		require.True(t, ok)
		assert.Equal(t, "abc", h.SessionID)
		assert.Equal(t, "com.example.myapp", h.App)
	})
}

func TestIsCaptureFile(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"xctap_capture_abc.log", true},
		{"xctap_capture_.log", true},
		{"xctap_capture_abc.txt", false},
		{"capture_abc.log", false},
		{"xctap_capture_abc.log.bak", false},
		{"unrelated.log", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCaptureFile(tt.name))
		})
	}
}

func TestFileStoreCreate(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	f, path, err := store.Create(Header{
		SessionID: "sess-1",
		Kind:      "simulator",
		Target:    "UDID",
		App:       "com.example.myapp",
		Mode:      "structured",
		StartedAt: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "xctap_capture_sess-1.log"), path)

	_, err = f.WriteString("first log line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := store.ReadAll(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# xctap capture session=sess-1")
	assert.Contains(t, content, "first log line")

	h, ok := store.ReadHeader(path)
	require.True(t, ok)
	assert.Equal(t, "sess-1", h.SessionID)
	assert.Equal(t, "com.example.myapp", h.App)
}

func TestFileStoreCreateMakesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "captures")
	store := NewFileStore(dir)

	f, _, err := store.Create(Header{SessionID: "sess-1", StartedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileStoreReadAllMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.ReadAll(filepath.Join(store.Dir(), "xctap_capture_gone.log"))
	require.Error(t, err)

	var fileErr *FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, "read", fileErr.Op)
}

func TestFileStoreList(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	write := func(name, content string, mod time.Time) {
		t.Helper()
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		require.NoError(t, os.Chtimes(path, mod, mod))
	}

	now := time.Now()
	write("xctap_capture_old.log", "# xctap capture session=old kind=simulator target=U1 app=com.example.a mode=structured started=2026-08-20T10:00:00Z\nbody\n", now.Add(-2*time.Hour))
	write("xctap_capture_new.log", "# xctap capture session=new kind=device target=U2 app=com.example.b mode=console started=2026-08-20T12:00:00Z\n", now.Add(-1*time.Minute))
	write("xctap_capture_headerless.log", "raw output only\n", now.Add(-1*time.Hour))
	write("not_a_capture.log", "ignore me\n", now)

	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 3)

	// Newest first.
	assert.Equal(t, "new", files[0].Header.SessionID)
	assert.True(t, files[0].HasHeader)
	assert.Equal(t, "com.example.b", files[0].Header.App)

	assert.False(t, files[1].HasHeader)
	assert.Empty(t, files[1].Header.SessionID)

	assert.Equal(t, "old", files[2].Header.SessionID)
}

func TestFileStoreListMissingDir(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "never-created"))
	files, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}
