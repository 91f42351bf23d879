package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jobscope/harvester/internal/harvest"
)

func TestVisitUpsertDocumentShape(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	filter, update := visitUpsert("job_posting", harvest.VisitEntry{
		ID:        "https://example.org/jobs/1",
		Status:    harvest.StatusCollected,
		CrawledAt: at,
	})

	require.Equal(t, bson.M{"url": "https://example.org/jobs/1"}, filter)
	require.Equal(t, bson.M{"purposes": "job_posting"}, update["$addToSet"],
		"purposes accumulate as a set across sources sharing a URL")
	require.Equal(t, bson.M{"status": "collected", "crawledAt": at}, update["$set"])
}

func TestVisitFilterScopesByPurpose(t *testing.T) {
	require.Equal(t, bson.M{"purposes": "cover_letter"}, visitFilter("cover_letter"))
}

func TestRecordUpsertKeyedBySourceURL(t *testing.T) {
	doc := bson.M{"metadata": bson.M{"sourceUrl": "https://example.org/jobs/1"}}
	filter, update := recordUpsert("https://example.org/jobs/1", doc)

	require.Equal(t, bson.M{"metadata.sourceUrl": "https://example.org/jobs/1"}, filter)
	require.Equal(t, bson.M{"$set": doc}, update)
}

func TestDialRejectsMissingSettings(t *testing.T) {
	_, err := Dial(t.Context(), Config{Database: "db"})
	require.ErrorContains(t, err, "mongo.uri")

	_, err = Dial(t.Context(), Config{URI: "mongodb://localhost:27017"})
	require.ErrorContains(t, err, "mongo.database")
}
