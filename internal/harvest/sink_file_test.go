package harvest_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jobscope/harvester/internal/harvest"
)

func TestFileSinkWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.jsonl")
	sink, err := harvest.NewFileSink(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	items := []testItem{
		{id: "https://example.org/1", doc: "one"},
		{id: "https://example.org/2", doc: "two"},
	}
	for _, item := range items {
		require.NoError(t, sink.Emit(context.Background(), item))
	}
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		require.True(t, json.Valid(scanner.Bytes()), "each line must be a standalone JSON document")
		lines++
	}
	require.NoError(t, scanner.Err())
	require.Equal(t, len(items), lines)
}

func TestFileSinkHonorsCanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.jsonl")
	sink, err := harvest.NewFileSink(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, sink.Emit(ctx, testItem{id: "https://example.org/1"}))
}
