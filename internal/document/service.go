// Package document coordinates loading and saving lyrics documents.
package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/starford/lyricist/internal/apperr"
	"github.com/starford/lyricist/internal/index"
	"github.com/starford/lyricist/internal/models"
	"github.com/starford/lyricist/internal/parser"
	"github.com/starford/lyricist/internal/storage"
)

// Notifier is told about documents the service wrote.
type Notifier func(ev models.DocumentEvent)

// Event kinds passed to Notifier.
const (
	EventCreated = "created"
	EventSaved   = "saved"
)

// Split turns text loaded from path into a Document. Only the reserved
// extension has its first line treated as a header.
func Split(path, text string) models.Document {
	res := parser.Parse(path, []byte(text))
	return models.Document{Path: path, Body: res.Body, Reference: res.Reference}
}

// Assemble returns the text to write for doc at path.
func Assemble(path string, doc models.Document) string {
	return string(parser.Assemble(path, doc.Body, doc.Reference))
}

// Service coordinates storage and index operations.
type Service struct {
	store  storage.Provider
	db     index.DocumentIndex
	logger *slog.Logger
	notify Notifier
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNotifier registers n for write notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// NewService creates a new document service.
func NewService(store storage.Provider, db index.DocumentIndex, opts ...Option) *Service {
	s := &Service{store: store, db: db, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// New returns an empty, unsaved document with no reference.
func (s *Service) New() *models.Document {
	return &models.Document{}
}

// Open loads the document at path and records it as recently opened.
func (s *Service) Open(_ context.Context, path string) (*models.Document, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", apperr.ErrNotFound, err)
		}
		return nil, err
	}

	res := parser.Parse(path, data)
	if res.Malformed != nil {
		s.logger.Warn("document: dropping malformed header",
			slog.String("path", path), slog.String("error", res.Malformed.Error()))
	}

	s.touchRecent(path)
	return &models.Document{Path: path, Body: res.Body, Reference: res.Reference}, nil
}

// Create writes doc to its path, failing if a file already exists there.
func (s *Service) Create(_ context.Context, doc *models.Document) error {
	if err := checkPath(doc.Path); err != nil {
		return err
	}
	if _, err := s.store.Read(doc.Path); err == nil {
		return apperr.ErrAlreadyExists
	}
	if err := s.write(doc.Path, doc); err != nil {
		return err
	}
	s.emit(EventCreated, doc)
	return nil
}

// Save writes doc to its current path. A document that was never saved
// must go through SaveAs.
func (s *Service) Save(ctx context.Context, doc *models.Document) error {
	if doc.Path == "" {
		return fmt.Errorf("document: save: no path: %w", apperr.ErrInvalidPath)
	}
	return s.SaveAs(ctx, doc, doc.Path)
}

// SaveAs writes doc to path and makes path the document's location.
// The header is rebuilt from the in-memory reference on every save.
func (s *Service) SaveAs(_ context.Context, doc *models.Document, path string) error {
	if err := checkPath(path); err != nil {
		return err
	}
	if err := s.write(path, doc); err != nil {
		return err
	}
	doc.Path = path
	s.emit(EventSaved, doc)
	return nil
}

// write persists doc at path. Once the file is in place the save has
// succeeded; index and recent-files failures are only logged.
func (s *Service) write(path string, doc *models.Document) error {
	if doc.Reference != nil && !utf8.ValidString(doc.Reference.Locator) {
		return invalidLocator(doc.Reference.Locator)
	}
	data := parser.Assemble(path, doc.Body, doc.Reference)
	if err := s.store.Write(path, data); err != nil {
		return err
	}
	if err := index.IndexFile(s.db, path, data); err != nil {
		s.logger.Warn("document: index update failed",
			slog.String("path", path), slog.String("error", err.Error()))
	}
	if doc.Reference != nil && !parser.IsReserved(path) {
		s.logger.Info("document: reference not persisted for plain text file", slog.String("path", path))
	}
	s.touchRecent(path)
	return nil
}

// Associate points doc at the file at locator.
func (s *Service) Associate(doc *models.Document, locator string) error {
	locator = strings.TrimSpace(locator)
	if err := checkLocator(locator); err != nil {
		return err
	}
	doc.Reference = &models.ReferenceData{Kind: models.ReferenceKindFile, Locator: locator}
	return nil
}

// RemoveAssociation clears doc's reference. The next save writes no header.
func (s *Service) RemoveAssociation(doc *models.Document) {
	doc.Reference = nil
}

// Recent returns recently opened or saved paths, most recent first.
func (s *Service) Recent(_ context.Context) ([]string, error) {
	return s.db.Recent()
}

// List returns a page of indexed documents.
func (s *Service) List(_ context.Context, limit, offset int) ([]index.DocumentRow, int, error) {
	return s.db.ListDocuments(limit, offset)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

func (s *Service) touchRecent(path string) {
	if err := s.db.TouchRecent(path); err != nil {
		s.logger.Warn("document: recent files update failed",
			slog.String("path", path), slog.String("error", err.Error()))
	}
}

func (s *Service) emit(kind string, doc *models.Document) {
	if s.notify == nil {
		return
	}
	ev := models.DocumentEvent{Kind: kind, Path: doc.Path, Playable: models.IsPlayable(doc.Reference)}
	if doc.Reference != nil {
		ref := *doc.Reference
		ev.Reference = &ref
	}
	s.notify(ev)
}

// checkLocator rejects locators the header line cannot carry unchanged:
// JSON replaces invalid UTF-8 with U+FFFD.
func checkLocator(locator string) error {
	if locator == "" {
		return fmt.Errorf("document: empty locator: %w", apperr.ErrInvalidPath)
	}
	if !utf8.ValidString(locator) {
		return invalidLocator(locator)
	}
	return nil
}

func invalidLocator(locator string) error {
	return fmt.Errorf("document: locator %q is not valid UTF-8: %w", locator, apperr.ErrInvalidPath)
}

func checkPath(path string) error {
	if path == "" {
		return fmt.Errorf("document: empty path: %w", apperr.ErrInvalidPath)
	}
	if !storage.IsDocument(path) {
		return fmt.Errorf("document: %s: unsupported extension: %w", path, apperr.ErrInvalidPath)
	}
	return nil
}
