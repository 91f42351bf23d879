package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jobscope/harvester/internal/harvest"
)

// RecordStore persists validated documents, keyed by metadata.sourceUrl.
// Writes are single-document upserts, atomic at the identifier granularity.
type RecordStore struct {
	coll *mongo.Collection
}

// Upsert overwrites the document for id. Update mode relies on these
// overwrite semantics to replace stale content.
func (s *RecordStore) Upsert(ctx context.Context, id harvest.SourceID, doc any) error {
	filter, update := recordUpsert(id, doc)
	_, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", id, err)
	}
	return nil
}

func recordUpsert(id harvest.SourceID, doc any) (bson.M, bson.M) {
	filter := bson.M{"metadata.sourceUrl": string(id)}
	update := bson.M{"$set": doc}
	return filter, update
}
