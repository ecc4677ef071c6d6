package backends_test

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayneeseguin/relay/pkg/backends"
	"github.com/wayneeseguin/relay/pkg/types"
)

func TestRegistry_Schemes(t *testing.T) {
	r := backends.NewRegistry()
	assert.Equal(t, []string{"cbor", "file", "nats", "syslog"}, r.Schemes())
}

func TestRegistry_OpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	backend, err := backends.Open("file://" + path + "?sync=true&buffer=128")
	require.NoError(t, err)
	defer backend.Close()

	fb, ok := backend.(*backends.FileBackend)
	require.True(t, ok, "got %T", backend)
	assert.Equal(t, path, fb.Path())

	rec := types.NewRecord(types.LevelInfo, "app", "")
	require.NoError(t, backend.Accept("synced", &rec))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "synced\n", string(data))
}

func TestRegistry_OpenCBOR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.cbor")

	backend, err := backends.Open("cbor://" + path)
	require.NoError(t, err)
	assert.Equal(t, "cbor://"+path, backend.Name())
	assert.NoError(t, backend.Close())
}

func TestRegistry_Errors(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"unknown scheme", "kafka://localhost/logs"},
		{"file without path", "file://"},
		{"bad sync", "file:///tmp/x.log?sync=maybe"},
		{"bad buffer", "file:///tmp/x.log?buffer=big"},
		{"bad facility", "syslog://localhost:514?facility=kern"},
		{"nats without subject", "nats://localhost:4222"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := backends.Open(tt.uri)
			assert.Error(t, err)
		})
	}
}

type stubBackend struct {
	backends.Backend
	uri string
}

func TestRegistry_Register(t *testing.T) {
	r := backends.NewRegistry()

	var seen string
	factory := func(u *url.URL) (backends.Backend, error) {
		seen = u.Host
		return stubBackend{uri: u.String()}, nil
	}

	require.NoError(t, r.Register("memory", factory))
	assert.Error(t, r.Register("memory", factory), "duplicate scheme")
	assert.Error(t, r.Register("file", factory), "built-in scheme")

	backend, err := r.Open("memory://bucket")
	require.NoError(t, err)
	assert.Equal(t, "bucket", seen)
	assert.Equal(t, "memory://bucket", backend.(stubBackend).uri)
	assert.Contains(t, r.Schemes(), "memory")

	_, err = backends.NewRegistry().Open("memory://bucket")
	assert.Error(t, err, "registries are independent")
}
