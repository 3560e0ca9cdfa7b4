package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/ohler55/ojg/oj"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/bulk/sqlite"
	"github.com/jacentio/geoobject/model"
	"github.com/jacentio/geoobject/objectstore"
	"github.com/jacentio/geoobject/typed"
)

// env holds the stores a command runs against. Scratch keeps objects in
// memory for checks that must not persist anything.
type env struct {
	session *typed.Session
	scratch *typed.Session
	blobs   *sqlite.Store
}

// openEnv opens the blob store and the configured object store.
func openEnv(ctx context.Context, cfg Config, logger *slog.Logger) (*env, error) {
	data, blobs, err := sqlite.NewClient(ctx, cfg.sqliteConfig(), logger)
	if err != nil {
		return nil, err
	}

	var objects objectstore.Service
	switch cfg.Backend {
	case backendDynamoDB:
		var opts []func(*config.LoadOptions) error
		if cfg.DynamoDB.Profile != "" {
			opts = append(opts, config.WithSharedConfigProfile(cfg.DynamoDB.Profile))
		}
		if cfg.DynamoDB.Region != "" {
			opts = append(opts, config.WithRegion(cfg.DynamoDB.Region))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			_ = blobs.Close()
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		objects = objectstore.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), data, cfg.dynamoConfig(), logger)
	default:
		objects = objectstore.NewMemoryStore(data, logger)
	}

	return &env{
		session: typed.NewSession(objects, data, logger),
		scratch: typed.NewSession(objectstore.NewMemoryStore(data, logger), data, logger),
		blobs:   blobs,
	}, nil
}

func (e *env) Close() error {
	return e.blobs.Close()
}

// readDocument parses a JSON object document from path.
func readDocument(path string) (model.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := oj.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parse %s: expected a JSON object, got %T", path, v)
	}
	return doc, nil
}

// check loads doc as its registered type in the scratch store, which
// validates it.
func (e *env) check(ctx context.Context, doc model.Document) (typed.Object, error) {
	doc = model.CloneDocument(doc)
	delete(doc, "uuid")
	stored, err := e.scratch.Objects.Create(ctx, doc, objectstore.CreateOptions{Path: "/" + uuid.NewString() + ".json"})
	if err != nil {
		return nil, err
	}
	defer func() { _ = e.scratch.Objects.Delete(ctx, stored.Metadata().ID) }()
	return typed.FromReference(ctx, e.scratch, stored.Metadata().ID)
}

// missingData returns the bulk data references of doc absent from the blob
// store.
func (e *env) missingData(ctx context.Context, doc model.Document) ([]string, error) {
	var missing []string
	for _, ref := range objectstore.DataRefs(doc) {
		_, err := e.blobs.Get(ctx, ref)
		if errors.Is(err, bulk.ErrNotFound) {
			missing = append(missing, ref)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return missing, nil
}
