package main

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/jacentio/geoobject/bulk/sqlite"
	"github.com/jacentio/geoobject/objectstore"
)

// Backends accepted by the backend setting.
const (
	backendMemory   = "memory"
	backendDynamoDB = "dynamodb"
)

// Config is the CLI configuration, read from an HCL file:
//
//	log_level  = "debug"
//	log_format = "json"
//	backend    = "dynamodb"
//
//	data {
//	  path         = "/var/lib/geoobject/blobs.db"
//	  busy_timeout = "10s"
//	}
//
//	dynamodb {
//	  profile      = "survey"
//	  region       = "ap-southeast-2"
//	  object_table = "geoobject_objects"
//	}
type Config struct {
	LogLevel  string          `hcl:"log_level,optional"`
	LogFormat string          `hcl:"log_format,optional"`
	Backend   string          `hcl:"backend,optional"`
	Data      *DataConfig     `hcl:"data,block"`
	DynamoDB  *DynamoDBConfig `hcl:"dynamodb,block"`
}

// DataConfig configures the SQLite blob store.
type DataConfig struct {
	Path        string `hcl:"path,optional"`
	Table       string `hcl:"table,optional"`
	BusyTimeout string `hcl:"busy_timeout,optional"`
}

// DynamoDBConfig configures the DynamoDB object store.
type DynamoDBConfig struct {
	Profile     string `hcl:"profile,optional"`
	Region      string `hcl:"region,optional"`
	ObjectTable string `hcl:"object_table,optional"`
	PathTable   string `hcl:"path_table,optional"`
	RefTable    string `hcl:"ref_table,optional"`
	Shards      int    `hcl:"shards,optional"`
}

// defaultConfig returns the configuration used without a config file.
func defaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Backend:   backendMemory,
		Data:      &DataConfig{},
		DynamoDB:  &DynamoDBConfig{},
	}
}

// loadConfig reads path over the defaults. An empty path returns the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	var file Config
	if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.LogFormat != "" {
		cfg.LogFormat = file.LogFormat
	}
	if file.Backend != "" {
		cfg.Backend = file.Backend
	}
	if file.Data != nil {
		cfg.Data = file.Data
	}
	if file.DynamoDB != nil {
		cfg.DynamoDB = file.DynamoDB
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Backend {
	case backendMemory, backendDynamoDB:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, backendMemory, backendDynamoDB)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if c.Data != nil && c.Data.BusyTimeout != "" {
		if _, err := time.ParseDuration(c.Data.BusyTimeout); err != nil {
			return fmt.Errorf("data.busy_timeout: %w", err)
		}
	}
	return nil
}

// sqliteConfig maps the data block onto the blob store configuration.
func (c Config) sqliteConfig() sqlite.Config {
	cfg := sqlite.DefaultConfig()
	if c.Data == nil {
		return cfg
	}
	if c.Data.Path != "" {
		cfg.Path = c.Data.Path
	}
	if c.Data.Table != "" {
		cfg.Table = c.Data.Table
	}
	if d, err := time.ParseDuration(c.Data.BusyTimeout); err == nil {
		cfg.BusyTimeout = d
	}
	return cfg
}

// dynamoConfig maps the dynamodb block onto the object store configuration.
func (c Config) dynamoConfig() objectstore.DynamoConfig {
	cfg := objectstore.DefaultDynamoConfig()
	if c.DynamoDB == nil {
		return cfg
	}
	if c.DynamoDB.ObjectTable != "" {
		cfg.ObjectTable = c.DynamoDB.ObjectTable
	}
	if c.DynamoDB.PathTable != "" {
		cfg.PathTable = c.DynamoDB.PathTable
	}
	if c.DynamoDB.RefTable != "" {
		cfg.RefTable = c.DynamoDB.RefTable
	}
	if c.DynamoDB.Shards > 0 {
		cfg.NumShards = c.DynamoDB.Shards
	}
	return cfg
}
