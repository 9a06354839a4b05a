package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/forkwatch/pkg/domain/model"
	"github.com/m-mizutani/forkwatch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionWatermarks = "watermarks"
	collectionUpdates    = "updates"
)

// Client is a Firestore-backed watermark store and update sink. Updates are
// keyed by "{source}:{tag}" so re-emission after a restart overwrites the
// existing record instead of duplicating it.
type Client struct {
	db *firestore.Client
}

type watermarkDoc struct {
	SourceID  string    `firestore:"source_id"`
	Timestamp time.Time `firestore:"timestamp"`
}

// New creates a Firestore client. databaseID may be empty for the default
// database.
func New(ctx context.Context, projectID, databaseID string) (*Client, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project ID is required", goerr.T(types.ErrTagConfig))
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	db, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.V("database_id", databaseID))
	}

	return &Client{db: db}, nil
}

// Close releases the underlying connection.
func (x *Client) Close() error {
	return x.db.Close()
}

// GetWatermark returns nil when the source has never been polled.
func (x *Client) GetWatermark(ctx context.Context, id types.SourceID) (*time.Time, error) {
	snap, err := x.db.Collection(collectionWatermarks).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get watermark", goerr.V("source_id", id))
	}

	var doc watermarkDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode watermark", goerr.V("source_id", id))
	}
	return &doc.Timestamp, nil
}

// SetWatermark upserts the last successful poll time for the source.
func (x *Client) SetWatermark(ctx context.Context, id types.SourceID, ts time.Time) error {
	doc := watermarkDoc{
		SourceID:  id.String(),
		Timestamp: ts,
	}
	if _, err := x.db.Collection(collectionWatermarks).Doc(id.String()).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to set watermark", goerr.V("source_id", id))
	}
	return nil
}

// Emit persists detected updates. Writes are independent; the first failure
// aborts the batch and the poller records it as a source level error.
func (x *Client) Emit(ctx context.Context, updates []*model.DetectedUpdate) error {
	for _, update := range updates {
		docID := fmt.Sprintf("%s:%s", update.Record.SourceID, update.Record.Tag)
		if _, err := x.db.Collection(collectionUpdates).Doc(docID).Set(ctx, update.Record); err != nil {
			return goerr.Wrap(err, "failed to store update",
				goerr.V("source_id", update.Record.SourceID),
				goerr.V("tag", update.Record.Tag))
		}
	}
	return nil
}

// RecentUpdates returns the most recently detected update records, newest
// first.
func (x *Client) RecentUpdates(ctx context.Context, limit int) ([]model.UpdateRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	iter := x.db.Collection(collectionUpdates).
		OrderBy("detected_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var records []model.UpdateRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate updates")
		}

		var record model.UpdateRecord
		if err := snap.DataTo(&record); err != nil {
			return nil, goerr.Wrap(err, "failed to decode update record")
		}
		records = append(records, record)
	}

	return records, nil
}
