package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/internal/shard"
	"github.com/jacentio/geoobject/model"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
// *dynamodb.Client satisfies it.
type DynamoAPI interface {
	dynamodb.QueryAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoStore is a Service over DynamoDB.
type DynamoStore struct {
	client DynamoAPI
	config DynamoConfig
	data   bulk.Client
	logger *slog.Logger
}

// NewDynamoStore creates a store. Objects it returns use data for bulk data.
func NewDynamoStore(client DynamoAPI, data bulk.Client, config DynamoConfig, logger *slog.Logger) *DynamoStore {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &DynamoStore{client: client, config: config, data: data, logger: logger}
}

// Config returns the validated configuration.
func (s *DynamoStore) Config() DynamoConfig { return s.config }

// record is a decoded object item.
type record struct {
	id        string
	path      string
	doc       model.Document
	version   int64
	refs      []string
	createdAt string
	updatedAt string
}

// Create implements Service. The path constraint, the object and its data
// reference records are written in one transaction.
func (s *DynamoStore) Create(ctx context.Context, doc model.Document, opts CreateOptions) (*Object, error) {
	p, err := ResolvePath(doc, opts)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	rec := &record{
		id:        uuid.NewString(),
		path:      p,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}
	rec.doc = prepareDocument(doc, rec.id)
	rec.refs = DataRefs(rec.doc)

	item, err := s.marshalRecord(rec)
	if err != nil {
		return nil, err
	}

	// 1. Path constraint
	pathIndex := 0
	items := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName: aws.String(s.config.PathTable),
			Item: map[string]types.AttributeValue{
				"pk":        &types.AttributeValueMemberS{Value: shard.PathPK(p)},
				"path":      &types.AttributeValueMemberS{Value: p},
				"object_id": &types.AttributeValueMemberS{Value: rec.id},
			},
			ConditionExpression: aws.String("attribute_not_exists(pk)"),
		},
	}}

	// 2. Object
	objectIndex := len(items)
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(s.config.ObjectTable),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		},
	})

	// 3. Data reference records
	for _, ref := range rec.refs {
		items = append(items, s.putRef(ref, rec.id))
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err := s.mapCreateTransactionError(ctx, err, p, pathIndex, objectIndex); err != nil {
		return nil, err
	}
	s.logger.Debug("created object", "id", rec.id, "path", p, "dataRefs", len(rec.refs))
	return s.handle(rec), nil
}

// Replace implements Service.
func (s *DynamoStore) Replace(ctx context.Context, ref string, doc model.Document, createIfMissing bool) (*Object, error) {
	return replace(ctx, s, ref, doc, createIfMissing)
}

// update writes a new version of id with optimistic locking and moves the
// data reference records from the old document's references to the new.
func (s *DynamoStore) update(ctx context.Context, id string, doc model.Document) (*Object, error) {
	current, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	next := &record{
		id:        id,
		path:      current.path,
		version:   current.version + 1,
		createdAt: current.createdAt,
		updatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	next.doc = prepareDocument(doc, id)
	next.refs = DataRefs(next.doc)

	item, err := s.marshalRecord(next)
	if err != nil {
		return nil, err
	}

	items := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:                aws.String(s.config.ObjectTable),
			Item:                     item,
			ConditionExpression:      aws.String("#version = :expected_version"),
			ExpressionAttributeNames: map[string]string{"#version": "version"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(current.version, 10)},
			},
		},
	}}
	for _, ref := range next.refs {
		if !slices.Contains(current.refs, ref) {
			items = append(items, s.putRef(ref, id))
		}
	}
	for _, ref := range current.refs {
		if !slices.Contains(next.refs, ref) {
			items = append(items, s.deleteRef(ref, id))
		}
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err := mapWriteTransactionError(err); err != nil {
		return nil, err
	}
	s.logger.Debug("replaced object", "id", id, "version", next.version, "dataRefs", len(next.refs))
	return s.handle(next), nil
}

// Get implements Service.
func (s *DynamoStore) Get(ctx context.Context, ref string) (*Object, error) {
	id := ref
	if !IsObjectID(ref) {
		var err error
		if id, err = s.lookupPath(ctx, cleanPath(ref)); err != nil {
			return nil, err
		}
	}
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.handle(rec), nil
}

// Delete implements Service. The object, its path constraint and its data
// reference records are removed in one transaction.
func (s *DynamoStore) Delete(ctx context.Context, ref string) error {
	obj, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	rec, err := s.getRecord(ctx, obj.Metadata().ID)
	if err != nil {
		return err
	}

	items := []types.TransactWriteItem{
		{
			Delete: &types.Delete{
				TableName:                aws.String(s.config.ObjectTable),
				Key:                      objectKey(rec.id),
				ConditionExpression:      aws.String("#version = :expected_version"),
				ExpressionAttributeNames: map[string]string{"#version": "version"},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.version, 10)},
				},
			},
		},
		{
			Delete: &types.Delete{
				TableName: aws.String(s.config.PathTable),
				Key: map[string]types.AttributeValue{
					"pk": &types.AttributeValueMemberS{Value: shard.PathPK(rec.path)},
				},
			},
		},
	}
	for _, dataRef := range rec.refs {
		items = append(items, s.deleteRef(dataRef, rec.id))
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err := mapWriteTransactionError(err); err != nil {
		return err
	}
	s.logger.Debug("deleted object", "id", rec.id, "path", rec.path)
	return nil
}

func (s *DynamoStore) lookupPath(ctx context.Context, p string) (string, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.PathTable),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: shard.PathPK(p)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	if result.Item == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	id := stringAttr(result.Item, "object_id")
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return id, nil
}

func (s *DynamoStore) getRecord(ctx context.Context, id string) (*record, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.ObjectTable),
		Key:            objectKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return unmarshalRecord(result.Item)
}

// IsReferenced reports whether any object uses dataRef.
func (s *DynamoStore) IsReferenced(ctx context.Context, dataRef string) (bool, error) {
	numShards := s.config.NumShards

	// Fast path for single shard (default)
	if numShards == 1 {
		return s.hasReferenceInShard(ctx, shard.Key(dataRef, 0))
	}

	// Multi-shard fan-out with early cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	found := make(chan bool, 1)
	errs := make(chan error, numShards)
	var wg sync.WaitGroup

	for shardNum := 0; shardNum < numShards; shardNum++ {
		wg.Add(1)
		go func(shardNum int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			default:
			}

			ok, err := s.hasReferenceInShard(ctx, shard.Key(dataRef, shardNum))
			if err != nil {
				errs <- err
				return
			}
			if ok {
				select {
				case found <- true:
					cancel()
				default:
				}
			}
		}(shardNum)
	}

	go func() {
		wg.Wait()
		close(found)
		close(errs)
	}()

	select {
	case ok := <-found:
		if ok {
			return true, nil
		}
	case err := <-errs:
		if err != nil && !errors.Is(err, context.Canceled) {
			return false, err
		}
	}

	for err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return false, err
		}
	}
	for ok := range found {
		if ok {
			return true, nil
		}
	}

	return false, nil
}

func (s *DynamoStore) hasReferenceInShard(ctx context.Context, shardPK string) (bool, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.config.RefTable),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: shardPK},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(result.Items) > 0, nil
}

// ReferencingObjects returns the IDs of every object using dataRef.
func (s *DynamoStore) ReferencingObjects(ctx context.Context, dataRef string) ([]string, error) {
	numShards := s.config.NumShards

	// Fast path for single shard (default)
	if numShards == 1 {
		return s.queryReferenceShard(ctx, shard.Key(dataRef, 0))
	}

	// Multi-shard fan-out
	var mu sync.Mutex
	var all []string
	var wg sync.WaitGroup
	errs := make(chan error, numShards)

	for shardNum := 0; shardNum < numShards; shardNum++ {
		wg.Add(1)
		go func(shardNum int) {
			defer wg.Done()

			ids, err := s.queryReferenceShard(ctx, shard.Key(dataRef, shardNum))
			if err != nil {
				errs <- fmt.Errorf("shard %02x: %w", shardNum, err)
				return
			}

			mu.Lock()
			all = append(all, ids...)
			mu.Unlock()
		}(shardNum)
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(all)
	return all, nil
}

func (s *DynamoStore) queryReferenceShard(ctx context.Context, shardPK string) ([]string, error) {
	var ids []string
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.config.RefTable),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: shardPK},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if id := stringAttr(item, "object_id"); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (s *DynamoStore) putRef(dataRef, objectID string) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.config.RefTable),
			Item: map[string]types.AttributeValue{
				"pk":        &types.AttributeValueMemberS{Value: shard.ReferencePK(dataRef, objectID, s.config.NumShards)},
				"object_id": &types.AttributeValueMemberS{Value: objectID},
				"data_ref":  &types.AttributeValueMemberS{Value: dataRef},
			},
		},
	}
}

func (s *DynamoStore) deleteRef(dataRef, objectID string) types.TransactWriteItem {
	return types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(s.config.RefTable),
			Key: map[string]types.AttributeValue{
				"pk":        &types.AttributeValueMemberS{Value: shard.ReferencePK(dataRef, objectID, s.config.NumShards)},
				"object_id": &types.AttributeValueMemberS{Value: objectID},
			},
		},
	}
}

func (s *DynamoStore) handle(rec *record) *Object {
	schema, _ := rec.doc["schema"].(string)
	meta := model.Metadata{
		ID:        rec.id,
		Path:      rec.path,
		SchemaID:  schema,
		VersionID: strconv.FormatInt(rec.version, 10),
	}
	meta.CreatedAt, _ = time.Parse(time.RFC3339, rec.createdAt)
	meta.ModifiedAt, _ = time.Parse(time.RFC3339, rec.updatedAt)
	return NewObject(meta, rec.doc, s.data, s)
}

// mapCreateTransactionError maps DynamoDB transaction errors for Create.
// pathIndex is the index of the path constraint put, objectIndex the index
// of the object put.
func (s *DynamoStore) mapCreateTransactionError(ctx context.Context, err error, p string, pathIndex, objectIndex int) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
				continue
			}
			switch i {
			case pathIndex:
				existing, lookupErr := s.lookupPath(ctx, p)
				if lookupErr != nil {
					s.logger.Warn("failed to resolve existing object", "path", p, "error", lookupErr)
				}
				return &AlreadyExistsError{Path: p, ExistingID: existing}
			case objectIndex:
				return ErrAlreadyExists
			}
		}
	}

	return err
}

// mapWriteTransactionError maps DynamoDB transaction errors for replace and
// delete. The first item always carries the version condition.
func mapWriteTransactionError(err error) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for _, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return ErrConcurrentModification
			}
		}
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConcurrentModification
	}

	return err
}

func objectKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// marshalRecord converts a record to an object item.
func (s *DynamoStore) marshalRecord(rec *record) (map[string]types.AttributeValue, error) {
	docAttr, err := attributevalue.MarshalMap(rec.doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	refsAttr, err := attributevalue.MarshalList(rec.refs)
	if err != nil {
		return nil, fmt.Errorf("marshal data refs: %w", err)
	}
	schema, _ := rec.doc["schema"].(string)
	return map[string]types.AttributeValue{
		"id":         &types.AttributeValueMemberS{Value: rec.id},
		"path":       &types.AttributeValueMemberS{Value: rec.path},
		"schema":     &types.AttributeValueMemberS{Value: schema},
		"document":   &types.AttributeValueMemberM{Value: docAttr},
		"data_refs":  &types.AttributeValueMemberL{Value: refsAttr},
		"version":    &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.version, 10)},
		"created_at": &types.AttributeValueMemberS{Value: rec.createdAt},
		"updated_at": &types.AttributeValueMemberS{Value: rec.updatedAt},
	}, nil
}

// unmarshalRecord converts an object item to a record.
func unmarshalRecord(raw map[string]types.AttributeValue) (*record, error) {
	rec := &record{
		id:        stringAttr(raw, "id"),
		path:      stringAttr(raw, "path"),
		createdAt: stringAttr(raw, "created_at"),
		updatedAt: stringAttr(raw, "updated_at"),
	}
	if v, ok := raw["version"].(*types.AttributeValueMemberN); ok {
		rec.version, _ = strconv.ParseInt(v.Value, 10, 64)
	}
	if v, ok := raw["document"].(*types.AttributeValueMemberM); ok {
		if err := attributevalue.UnmarshalMap(v.Value, &rec.doc); err != nil {
			return nil, fmt.Errorf("unmarshal document: %w", err)
		}
	}
	if rec.doc == nil {
		rec.doc = model.Document{}
	}
	if v, ok := raw["data_refs"].(*types.AttributeValueMemberL); ok {
		if err := attributevalue.UnmarshalList(v.Value, &rec.refs); err != nil {
			return nil, fmt.Errorf("unmarshal data refs: %w", err)
		}
	}
	return rec, nil
}

func stringAttr(item map[string]types.AttributeValue, key string) string {
	if v, ok := item[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
