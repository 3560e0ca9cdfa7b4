//go:build e2e

// Package e2e contains end-to-end integration tests using real DynamoDB tables.
// Run with: go test -tags=e2e -v ./e2e/...
package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/bulk/memory"
	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/objectstore"
	"github.com/jacentio/geoobject/stream"
	"github.com/jacentio/geoobject/typed"
)

// Test configuration
const (
	awsProfile = "geoobject-e2e"

	// Table names - unique per test run to avoid conflicts
	tablePrefix = "geoobject-e2e-test"
)

var (
	testID      string
	objectTable string
	pathTable   string
	refTable    string

	ddbClient *dynamodb.Client
	objects   *objectstore.DynamoStore
	blobs     *memory.Store
	session   *typed.Session
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	// Generate unique test ID
	testID = uuid.New().String()[:8]
	objectTable = fmt.Sprintf("%s-%s-objects", tablePrefix, testID)
	pathTable = fmt.Sprintf("%s-%s-paths", tablePrefix, testID)
	refTable = fmt.Sprintf("%s-%s-refs", tablePrefix, testID)

	fmt.Printf("Test ID: %s\n", testID)
	fmt.Printf("Tables:\n")
	fmt.Printf("  - Objects: %s\n", objectTable)
	fmt.Printf("  - Paths: %s\n", pathTable)
	fmt.Printf("  - Data refs: %s\n", refTable)

	// Initialize AWS client (uses region from profile config)
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(awsProfile),
	)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg)

	// Create tables
	if err := createTables(ctx); err != nil {
		fmt.Printf("Failed to create tables: %v\n", err)
		os.Exit(1)
	}

	// Initialize stores
	var data *bulk.DataClient
	data, blobs = memory.NewClient()
	objects = objectstore.NewDynamoStore(ddbClient, data, objectstore.DynamoConfig{
		ObjectTable: objectTable,
		PathTable:   pathTable,
		RefTable:    refTable,
		NumShards:   4,
	}, nil)
	session = typed.NewSession(objects, data, nil)

	// Run tests
	code := m.Run()

	// Cleanup tables
	if err := deleteTables(ctx); err != nil {
		fmt.Printf("Failed to delete tables: %v\n", err)
	}

	os.Exit(code)
}

func createTables(ctx context.Context) error {
	fmt.Println("Creating test tables...")

	// Object table (id)
	_, err := ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(objectTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create object table: %w", err)
	}

	// Path constraint table (pk)
	_, err = ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(pathTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create path table: %w", err)
	}

	// Data reference table (pk, object_id)
	_, err = ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(refTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("object_id"), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("object_id"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create data ref table: %w", err)
	}

	// Wait for all tables to be active
	for _, tableName := range []string{objectTable, pathTable, refTable} {
		waiter := dynamodb.NewTableExistsWaiter(ddbClient)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", tableName, err)
		}
	}

	fmt.Println("All tables created and active")
	return nil
}

func deleteTables(ctx context.Context) error {
	fmt.Println("Deleting test tables...")

	for _, tableName := range []string{objectTable, pathTable, refTable} {
		_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			fmt.Printf("Warning: failed to delete table %s: %v\n", tableName, err)
		}
	}

	fmt.Println("Tables deleted")
	return nil
}

// --- Helpers ---

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func gridData(name string) typed.Regular3DGridData {
	size := geom.Size3i{NX: 4, NY: 3, NZ: 2}
	return typed.Regular3DGridData{
		Base3DGridData: typed.Base3DGridData{
			BaseSpatialObjectData: typed.BaseSpatialObjectData{
				BaseObjectData:            typed.BaseObjectData{Name: name},
				CoordinateReferenceSystem: geom.EPSG(32650),
			},
			Origin: geom.Point3{X: 1000, Y: 2000, Z: -50},
			Size:   size,
		},
		CellSize: geom.Size3d{DX: 10, DY: 10, DZ: 5},
		CellData: frame.MustNew(frame.Column{Name: "density", Values: ramp(size.TotalSize())}),
	}
}

func uniquePath(name string) string {
	return fmt.Sprintf("/%s/%s/%s.json", testID, uuid.New().String()[:8], name)
}

// --- Object Tests ---

func TestCreate_RegularGrid(t *testing.T) {
	ctx := context.Background()
	p := uniquePath("grid")

	obj, err := typed.Create(ctx, session, gridData("grid"), objectstore.CreateOptions{Path: p})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	grid, err := typed.As[*typed.Regular3DGrid](typed.FromReference(ctx, session, p))
	if err != nil {
		t.Fatalf("FromReference failed: %v", err)
	}
	if grid.ID() != obj.ID() {
		t.Errorf("expected id %s, got %s", obj.ID(), grid.ID())
	}

	meta, _ := grid.Metadata()
	if meta.VersionID != "1" {
		t.Errorf("expected version 1, got %s", meta.VersionID)
	}

	cells, err := grid.Cells.Frame(ctx)
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if !cells.Equal(gridData("grid").CellData) {
		t.Errorf("cell data did not round trip: %s", cells)
	}
}

func TestCreate_DuplicatePath(t *testing.T) {
	ctx := context.Background()
	p := uniquePath("dup")

	first, err := typed.Create(ctx, session, gridData("dup"), objectstore.CreateOptions{Path: p})
	if err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	_, err = typed.Create(ctx, session, gridData("dup"), objectstore.CreateOptions{Path: p})
	var exists *objectstore.AlreadyExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("expected AlreadyExistsError, got %v", err)
	}
	if exists.ExistingID != first.ID() {
		t.Errorf("expected existing id %s, got %s", first.ID(), exists.ExistingID)
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := typed.FromReference(context.Background(), session, uniquePath("missing"))
	if !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// --- Update Tests ---

func TestUpdate_NewVersion(t *testing.T) {
	ctx := context.Background()
	grid, err := typed.As[*typed.Regular3DGrid](typed.Create(ctx, session, gridData("update"), objectstore.CreateOptions{Path: uniquePath("update")}))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := grid.SetOrigin(geom.Point3{X: 0, Y: 0, Z: 0}); err != nil {
		t.Fatalf("SetOrigin failed: %v", err)
	}
	if err := grid.Update(ctx); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	loaded, err := typed.As[*typed.Regular3DGrid](typed.FromReference(ctx, session, grid.ID()))
	if err != nil {
		t.Fatalf("FromReference failed: %v", err)
	}
	meta, _ := loaded.Metadata()
	if meta.VersionID != "2" {
		t.Errorf("expected version 2, got %s", meta.VersionID)
	}
	box, err := loaded.BoundingBox()
	if err != nil {
		t.Fatalf("BoundingBox failed: %v", err)
	}
	if box.MinX != 0 || box.MaxX != 40 || box.MaxZ != 10 {
		t.Errorf("expected bounding box recomputed from origin, got %v", box)
	}
}

// --- Reference Tests ---

func TestDataReferences_SharedAndCollected(t *testing.T) {
	ctx := context.Background()

	a, err := typed.As[*typed.Regular3DGrid](typed.Create(ctx, session, gridData("shared-a"), objectstore.CreateOptions{Path: uniquePath("shared-a")}))
	if err != nil {
		t.Fatalf("Create a failed: %v", err)
	}
	b, err := typed.Create(ctx, session, gridData("shared-b"), objectstore.CreateOptions{Path: uniquePath("shared-b")})
	if err != nil {
		t.Fatalf("Create b failed: %v", err)
	}

	ref := a.Cells.Attributes.At(0).DataRef()
	ids, err := objects.ReferencingObjects(ctx, ref)
	if err != nil {
		t.Fatalf("ReferencingObjects failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 referencing objects, got %v", ids)
	}

	handler := stream.NewHandler(objects, blobs, nil)
	removeEvent := func(id string) events.DynamoDBEvent {
		return events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{{
			EventName: "REMOVE",
			Change: events.DynamoDBStreamRecord{
				OldImage: map[string]events.DynamoDBAttributeValue{
					"id": events.NewStringAttribute(id),
					"data_refs": events.NewListAttribute([]events.DynamoDBAttributeValue{
						events.NewStringAttribute(ref),
					}),
				},
			},
		}}}
	}

	// Still referenced by b after a is gone
	if err := objects.Delete(ctx, a.ID()); err != nil {
		t.Fatalf("Delete a failed: %v", err)
	}
	if err := handler.HandleDataCollection(ctx, removeEvent(a.ID())); err != nil {
		t.Fatalf("HandleDataCollection failed: %v", err)
	}
	if !blobs.Has(ref) {
		t.Fatal("expected shared blob to survive while b references it")
	}

	if err := objects.Delete(ctx, b.ID()); err != nil {
		t.Fatalf("Delete b failed: %v", err)
	}
	if err := handler.HandleDataCollection(ctx, removeEvent(b.ID())); err != nil {
		t.Fatalf("HandleDataCollection failed: %v", err)
	}
	if blobs.Has(ref) {
		t.Error("expected blob to be collected once unreferenced")
	}
}
