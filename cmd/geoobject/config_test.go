package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geoobject.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, "geoobject-data.db", cfg.sqliteConfig().Path)
	assert.Equal(t, "geoobject_objects", cfg.dynamoConfig().ObjectTable)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
log_level  = "debug"
log_format = "json"
backend    = "dynamodb"

data {
  path         = "/tmp/blobs.db"
  busy_timeout = "10s"
}

dynamodb {
  region       = "ap-southeast-2"
  object_table = "survey_objects"
  shards       = 8
}
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, backendDynamoDB, cfg.Backend)

	data := cfg.sqliteConfig()
	assert.Equal(t, "/tmp/blobs.db", data.Path)
	assert.Equal(t, "geoobject_blobs", data.Table)
	assert.Equal(t, 10*time.Second, data.BusyTimeout)

	dynamo := cfg.dynamoConfig()
	assert.Equal(t, "survey_objects", dynamo.ObjectTable)
	assert.Equal(t, "geoobject_paths", dynamo.PathTable)
	assert.Equal(t, 8, dynamo.NumShards)
	assert.Equal(t, "ap-southeast-2", cfg.DynamoDB.Region)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"backend", `backend = "s3"`, `unknown backend "s3"`},
		{"log format", `log_format = "xml"`, `unknown log format "xml"`},
		{"duration", "data {\n  busy_timeout = \"soon\"\n}\n", "data.busy_timeout"},
		{"unknown attribute", `colour = "blue"`, "load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "flag.db")
	path := writeConfig(t, `
log_format = "json"
data {
  path = "/nonexistent/dir/blobs.db"
}
`)
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs([]string{"stats", "--config", path, "--data", dataPath, "--log-level", "debug"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), dataPath)
	assert.Contains(t, errOut.String(), `"msg":"opened blob store"`)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger("warn", "text", &buf).Info("hidden")
	assert.Empty(t, buf.String())

	newLogger("bogus", "json", &buf).Info("shown", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
