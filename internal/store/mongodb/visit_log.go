package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jobscope/harvester/internal/harvest"
)

// VisitLog is the Mongo-backed visitation log. One collection is shared by
// every source; documents carry a purposes array and each VisitLog handle is
// scoped to a single purpose, so snapshots never cross source types.
//
// Document shape: {url, purposes: [...], status, crawledAt}.
type VisitLog struct {
	coll    *mongo.Collection
	purpose string
}

// Record upserts the entry for its identifier: the purpose is added to the
// purposes set and status/crawledAt are overwritten.
func (l *VisitLog) Record(ctx context.Context, entry harvest.VisitEntry) error {
	filter, update := visitUpsert(l.purpose, entry)
	_, err := l.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert visit entry %s: %w", entry.ID, err)
	}
	return nil
}

// Snapshot returns every entry logged for this purpose.
func (l *VisitLog) Snapshot(ctx context.Context) ([]harvest.VisitEntry, error) {
	cur, err := l.coll.Find(ctx, visitFilter(l.purpose),
		options.Find().SetProjection(bson.M{"url": 1, "status": 1, "crawledAt": 1}))
	if err != nil {
		return nil, fmt.Errorf("find visit entries: %w", err)
	}
	defer cur.Close(ctx)

	var out []harvest.VisitEntry
	for cur.Next(ctx) {
		var doc visitDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode visit entry: %w", err)
		}
		out = append(out, harvest.VisitEntry{
			ID:        harvest.SourceID(doc.URL),
			Status:    harvest.Status(doc.Status),
			CrawledAt: doc.CrawledAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate visit entries: %w", err)
	}
	return out, nil
}

type visitDoc struct {
	URL       string    `bson:"url"`
	Status    string    `bson:"status"`
	CrawledAt time.Time `bson:"crawledAt"`
}

func visitFilter(purpose string) bson.M {
	return bson.M{"purposes": purpose}
}

func visitUpsert(purpose string, entry harvest.VisitEntry) (bson.M, bson.M) {
	filter := bson.M{"url": string(entry.ID)}
	update := bson.M{
		"$addToSet": bson.M{"purposes": purpose},
		"$set": bson.M{
			"status":    string(entry.Status),
			"crawledAt": entry.CrawledAt,
		},
	}
	return filter, update
}
