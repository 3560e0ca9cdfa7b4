package objectstore_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory stand-in for the DynamoDB operations used by
// DynamoStore. It understands the handful of condition expressions the store
// writes.
type fakeDynamo struct {
	mu     sync.Mutex
	keys   map[string][]string
	tables map[string]map[string]map[string]types.AttributeValue

	// beforeTransact runs before conditions are evaluated.
	beforeTransact func(f *fakeDynamo)
	transactions   int
}

func newFakeDynamo(tables map[string][]string) *fakeDynamo {
	f := &fakeDynamo{keys: tables, tables: make(map[string]map[string]map[string]types.AttributeValue)}
	for name := range tables {
		f.tables[name] = make(map[string]map[string]types.AttributeValue)
	}
	return f
}

func (f *fakeDynamo) itemKey(table string, item map[string]types.AttributeValue) string {
	var parts []string
	for _, k := range f.keys[table] {
		if v, ok := item[k].(*types.AttributeValueMemberS); ok {
			parts = append(parts, v.Value)
		}
	}
	return strings.Join(parts, "|")
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := aws.ToString(in.TableName)
	item := f.tables[table][f.itemKey(table, in.Key)]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value
	var items []map[string]types.AttributeValue
	for _, item := range f.tables[aws.ToString(in.TableName)] {
		if pk, ok := item["pk"].(*types.AttributeValueMemberS); ok && pk.Value == want {
			items = append(items, item)
			if in.Limit != nil && int32(len(items)) >= *in.Limit {
				break
			}
		}
	}
	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items))}, nil
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions++
	if f.beforeTransact != nil {
		f.beforeTransact(f)
	}

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, it := range in.TransactItems {
		code := "None"
		switch {
		case it.Put != nil:
			table := aws.ToString(it.Put.TableName)
			existing := f.tables[table][f.itemKey(table, it.Put.Item)]
			if !f.check(it.Put.ConditionExpression, it.Put.ExpressionAttributeValues, existing) {
				code = "ConditionalCheckFailed"
			}
		case it.Delete != nil:
			table := aws.ToString(it.Delete.TableName)
			existing := f.tables[table][f.itemKey(table, it.Delete.Key)]
			if !f.check(it.Delete.ConditionExpression, it.Delete.ExpressionAttributeValues, existing) {
				code = "ConditionalCheckFailed"
			}
		}
		if code != "None" {
			failed = true
		}
		reasons[i] = types.CancellationReason{Code: aws.String(code)}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, it := range in.TransactItems {
		switch {
		case it.Put != nil:
			table := aws.ToString(it.Put.TableName)
			f.tables[table][f.itemKey(table, it.Put.Item)] = it.Put.Item
		case it.Delete != nil:
			table := aws.ToString(it.Delete.TableName)
			delete(f.tables[table], f.itemKey(table, it.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeDynamo) check(expr *string, values map[string]types.AttributeValue, existing map[string]types.AttributeValue) bool {
	switch e := aws.ToString(expr); {
	case e == "":
		return true
	case strings.HasPrefix(e, "attribute_not_exists("):
		return existing == nil
	case e == "#version = :expected_version":
		if existing == nil {
			return false
		}
		have, _ := existing["version"].(*types.AttributeValueMemberN)
		want, _ := values[":expected_version"].(*types.AttributeValueMemberN)
		return have != nil && want != nil && have.Value == want.Value
	default:
		panic(fmt.Sprintf("fakeDynamo: unsupported condition %q", e))
	}
}

func (f *fakeDynamo) count(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

// bumpVersions increments the version of every object item.
func (f *fakeDynamo) bumpVersions(table string) {
	for _, item := range f.tables[table] {
		if v, ok := item["version"].(*types.AttributeValueMemberN); ok {
			item["version"] = &types.AttributeValueMemberN{Value: v.Value + "0"}
		}
	}
}
