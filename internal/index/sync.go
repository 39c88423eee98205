package index

import (
	"log/slog"
	"time"

	"github.com/starford/lyricist/internal/checksum"
	"github.com/starford/lyricist/internal/parser"
	"github.com/starford/lyricist/internal/storage"
)

// Sync walks the documents root and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
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
		if err := IndexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile splits data into header and body and upserts it into the index.
func IndexFile(db DocumentIndex, path string, data []byte) error {
	res := parser.Parse(path, data)
	return db.UpsertDocument(DocumentRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Reference: res.Reference,
		UpdatedAt: time.Now(),
	}, res.Body)
}
