// Package stream provides DynamoDB Streams handlers that collect bulk data no
// longer referenced by any stored object.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
)

// ReferenceIndex reports whether any object still uses a bulk data
// reference. objectstore.DynamoStore implements it.
type ReferenceIndex interface {
	IsReferenced(ctx context.Context, dataRef string) (bool, error)
}

// BlobDeleter removes bulk data payloads. bulk.DataClient implements it.
type BlobDeleter interface {
	Delete(ctx context.Context, ref string) error
}

// Handler processes object table stream events and deletes payloads whose
// last reference was dropped.
type Handler struct {
	refs   ReferenceIndex
	blobs  BlobDeleter
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(refs ReferenceIndex, blobs BlobDeleter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		refs:   refs,
		blobs:  blobs,
		logger: logger,
	}
}

// HandleDataCollection processes DynamoDB stream events from the object
// table. It is designed to be used as an AWS Lambda handler; the stream must
// carry old images (OLD_IMAGE or NEW_AND_OLD_IMAGES).
func (h *Handler) HandleDataCollection(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	// INSERT events never drop a reference
	if record.EventName != "MODIFY" && record.EventName != "REMOVE" {
		return nil
	}

	oldRefs := getStringListAttr(record.Change.OldImage, "data_refs")
	newRefs := getStringListAttr(record.Change.NewImage, "data_refs")
	dropped := droppedRefs(oldRefs, newRefs)
	if len(dropped) == 0 {
		return nil
	}

	objectID := getStringAttr(record.Change.OldImage, "id")
	h.logger.Info("collecting dropped data",
		"objectID", objectID,
		"event", record.EventName,
		"version", getNumberAttr(record.Change.OldImage, "version"),
		"dropped", len(dropped),
	)

	deleted := 0
	for _, ref := range dropped {
		referenced, err := h.refs.IsReferenced(ctx, ref)
		if err != nil {
			return fmt.Errorf("check reference %s: %w", ref, err)
		}
		if referenced {
			continue
		}
		if err := h.blobs.Delete(ctx, ref); err != nil {
			h.logger.Warn("failed to delete data",
				"ref", ref,
				"error", err,
			)
			// Continue - the payload stays orphaned until the next sweep
			continue
		}
		deleted++
	}

	h.logger.Info("data collection completed",
		"objectID", objectID,
		"dropped", len(dropped),
		"deleted", deleted,
	)
	return nil
}

// droppedRefs returns the references in old that are absent from current.
func droppedRefs(old, current []string) []string {
	var out []string
	for _, ref := range old {
		if ref != "" && !slices.Contains(current, ref) && !slices.Contains(out, ref) {
			out = append(out, ref)
		}
	}
	return out
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}

// getStringListAttr extracts a string list attribute from a DynamoDB stream
// image. Both lists of strings and string sets are accepted.
func getStringListAttr(image map[string]events.DynamoDBAttributeValue, key string) []string {
	v, ok := image[key]
	if !ok {
		return nil
	}
	switch v.DataType() {
	case events.DataTypeList:
		var result []string
		for _, item := range v.List() {
			if item.DataType() == events.DataTypeString {
				result = append(result, item.String())
			}
		}
		return result
	case events.DataTypeStringSet:
		return v.StringSet()
	}
	return nil
}
