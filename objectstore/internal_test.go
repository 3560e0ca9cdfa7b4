package objectstore

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestMapWriteTransactionError_Nil(t *testing.T) {
	if err := mapWriteTransactionError(nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestMapWriteTransactionError_ConditionFailed(t *testing.T) {
	err := &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("ConditionalCheckFailed")},
			{Code: aws.String("None")},
		},
	}
	if got := mapWriteTransactionError(err); !errors.Is(got, ErrConcurrentModification) {
		t.Errorf("expected ErrConcurrentModification, got %v", got)
	}
}

func TestMapWriteTransactionError_OtherReason(t *testing.T) {
	err := &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("ThrottlingError")},
		},
	}
	if got := mapWriteTransactionError(err); got != err {
		t.Errorf("expected original error, got %v", got)
	}
}

func TestMapWriteTransactionError_ConditionalCheckException(t *testing.T) {
	err := &types.ConditionalCheckFailedException{}
	if got := mapWriteTransactionError(err); !errors.Is(got, ErrConcurrentModification) {
		t.Errorf("expected ErrConcurrentModification, got %v", got)
	}
}

func TestUnmarshalRecord(t *testing.T) {
	s := &DynamoStore{}
	rec := &record{
		id:        "id-1",
		path:      "/a.json",
		version:   3,
		refs:      []string{"r1", "r2"},
		createdAt: "2025-01-02T03:04:05Z",
		updatedAt: "2025-01-03T03:04:05Z",
	}
	rec.doc = prepareDocument(map[string]any{"name": "a", "schema": "s"}, rec.id)

	item, err := s.marshalRecord(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := unmarshalRecord(item)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.id != "id-1" || got.path != "/a.json" || got.version != 3 {
		t.Errorf("unexpected record %+v", got)
	}
	if len(got.refs) != 2 || got.refs[1] != "r2" {
		t.Errorf("expected refs [r1 r2], got %v", got.refs)
	}
	if got.doc["uuid"] != "id-1" || got.doc["name"] != "a" {
		t.Errorf("unexpected document %v", got.doc)
	}
	if stringAttr(item, "schema") != "s" {
		t.Errorf("expected schema attribute 's', got %q", stringAttr(item, "schema"))
	}
}

func TestUnmarshalRecord_Empty(t *testing.T) {
	got, err := unmarshalRecord(map[string]types.AttributeValue{})
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.doc == nil {
		t.Error("expected empty document, got nil")
	}
}
