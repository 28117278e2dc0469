package index

import (
	"log/slog"
	"time"

	"github.com/starford/dagaz/internal/checksum"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/storage"
)

// Sync walks the data directory and brings the index up to date:
//   - new/changed record files are parsed and upserted
//   - files that fail to parse are logged and skipped
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, p *parser.Parser, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, p, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteRecord(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile parses data as a record and upserts it into the DB.
func IndexFile(db *DB, p *parser.Parser, path string, data []byte) error {
	rec, err := p.Parse(data, path)
	if err != nil {
		return err
	}
	return db.UpsertRecord(rowFromRecord(rec, checksum.Sum(data)), string(data))
}

// rowFromRecord flattens a parsed record into its index row.
func rowFromRecord(rec *models.Record, cs string) RecordRow {
	return RecordRow{
		Path:         rec.Path,
		Identifier:   rec.Identifier,
		Type:         string(rec.Type),
		Event:        rec.Event,
		Tags:         rec.Tags,
		Due:          rec.Due.String(),
		Completed:    rec.Completed,
		Relevant:     rec.StillRelevant,
		RankPriority: rec.RankPriority,
		Checksum:     cs,
		UpdatedAt:    time.Now(),
	}
}
