package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/framecast/internal/domain"
)

// multipartThreshold is the payload size above which snapshots are uploaded
// via the multipart manager instead of a single PutObject.
const multipartThreshold = 8 * 1024 * 1024

// SnapshotArchiver uploads resolved-batch snapshots to S3, one object per
// window, partitioned by UTC date:
//
//	markets/dt=2026-08-30/window-1788115500.json
//
// Snapshots give an offline record of which market instances were live in
// each window, useful for backtesting and debugging resolution.
type SnapshotArchiver struct {
	writer domain.BlobWriter
	prefix string
	logger *slog.Logger
}

// NewSnapshotArchiver creates a SnapshotArchiver. prefix is prepended to all
// object keys; empty means the bucket root.
func NewSnapshotArchiver(writer domain.BlobWriter, prefix string, logger *slog.Logger) *SnapshotArchiver {
	return &SnapshotArchiver{
		writer: writer,
		prefix: prefix,
		logger: logger.With("component", "archiver"),
	}
}

// Archive serializes the batch and uploads it under the window-derived key.
func (a *SnapshotArchiver) Archive(ctx context.Context, batch domain.ResolvedBatch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("s3blob: marshal snapshot: %w", err)
	}

	key := a.snapshotKey(batch.WindowStart)

	if len(data) > multipartThreshold {
		err = a.writer.PutMultipart(ctx, key, bytes.NewReader(data), "application/json", 0)
	} else {
		err = a.writer.Put(ctx, key, bytes.NewReader(data), "application/json")
	}
	if err != nil {
		return fmt.Errorf("s3blob: upload snapshot %s: %w", key, err)
	}

	a.logger.Debug("snapshot archived",
		"key", key,
		"markets", len(batch.Markets),
		"bytes", len(data),
	)
	return nil
}

// snapshotKey builds the S3 key for a window snapshot.
func (a *SnapshotArchiver) snapshotKey(windowStart int64) string {
	day := time.Unix(windowStart, 0).UTC().Format("2006-01-02")
	key := fmt.Sprintf("markets/dt=%s/window-%d.json", day, windowStart)
	if a.prefix != "" {
		return a.prefix + "/" + key
	}
	return key
}
