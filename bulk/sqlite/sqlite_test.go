package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/frame"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "blobs.db")
	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      Config
		want    Config
		wantErr bool
	}{
		{"zero value takes defaults", Config{}, DefaultConfig(), false},
		{
			"custom values kept",
			Config{Path: "x.db", Table: "blobs_v2", BusyTimeout: time.Second, MaxOpenConns: 4},
			Config{Path: "x.db", Table: "blobs_v2", BusyTimeout: time.Second, MaxOpenConns: 4},
			false,
		},
		{
			"negative clamped",
			Config{Path: "x.db", Table: "t", BusyTimeout: -1, MaxOpenConns: -3},
			Config{Path: "x.db", Table: "t", BusyTimeout: 5 * time.Second, MaxOpenConns: 1},
			false,
		},
		{"table injection rejected", Config{Table: "blobs; DROP TABLE x"}, Config{}, true},
		{"leading digit rejected", Config{Table: "1blobs"}, Config{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			err := cfg.validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Put(ctx, "a", []byte("alpha")))
	require.NoError(t, s.Put(ctx, "a", []byte("ignored")))
	require.NoError(t, s.Put(ctx, "b", []byte("beta")))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), got)

	count, size, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, int64(9), size)

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	require.ErrorIs(t, err, bulk.ErrNotFound)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "blobs.db")

	s, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "kept", []byte{1, 2, 3}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestNewClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "blobs.db")
	client, s, err := NewClient(ctx, cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	cat, err := frame.NewCategorical([]string{"sand", "clay", "sand"}, nil)
	require.NoError(t, err)
	f := frame.MustNew(
		frame.Column{Name: "x", Values: []float64{1, 2, 3}},
		frame.Column{Name: "y", Values: []float64{4, 5, 6}},
		frame.Column{Name: "z", Values: []float64{7, 8, 9}},
	)

	info, err := client.UploadFrame(ctx, f, bulk.FloatArray3)
	require.NoError(t, err)
	got, err := client.DownloadFrame(ctx, info, []string{"x", "y", "z"})
	require.NoError(t, err)
	assert.True(t, f.Equal(got))

	catInfo, err := client.UploadCategoryFrame(ctx, frame.MustNew(frame.Column{Name: "rock", Values: cat}))
	require.NoError(t, err)
	assert.Contains(t, catInfo, "table")

	count, _, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
