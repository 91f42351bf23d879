package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// FileSink serializes raw parsed items to a file as JSON lines. It is the
// dry-run path: the persistence pipeline is bypassed entirely and no dedup
// bookkeeping happens.
type FileSink struct {
	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	logger *zap.Logger
}

// NewFileSink opens (truncating) the output file at path.
func NewFileSink(path string, logger *zap.Logger) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create sink file %s: %w", path, err)
	}
	return &FileSink{
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.Named("sink"),
	}, nil
}

// Emit writes the raw item unchanged as one JSON line.
func (s *FileSink) Emit(ctx context.Context, item Item) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(item); err != nil {
		return fmt.Errorf("encode item %s: %w", item.SourceID(), err)
	}
	return nil
}

// Close flushes and closes the output file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close sink file: %w", err)
	}
	return nil
}
