package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lyricist/internal/index"
	"github.com/starford/lyricist/internal/models"
	"github.com/starford/lyricist/internal/words"
)

// DocumentResponse is the full document returned by open and save.
type DocumentResponse struct {
	Path      string                `json:"path" example:"songs/river.lyrics"`
	Body      string                `json:"body" example:"Down by the river"`
	Reference *models.ReferenceData `json:"reference"`
	Playable  bool                  `json:"playable"`
	// Syllables holds one count per line of Body.
	Syllables []int                 `json:"syllables" example:"5,4"`
}

func newDocumentResponse(doc *models.Document) DocumentResponse {
	return DocumentResponse{
		Path:      doc.Path,
		Body:      doc.Body,
		Reference: doc.Reference,
		Playable:  models.IsPlayable(doc.Reference),
		Syllables: words.CountLines(doc.Body),
	}
}

// SaveDocumentRequest is the request body for saving a document.
type SaveDocumentRequest struct {
	Body      string                `json:"body" example:"Down by the river"`
	Reference *models.ReferenceData `json:"reference"`
}

// Validate checks the reference, when present, is a usable file reference.
func (r SaveDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reference, validation.By(validateReference)),
	)
}

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Path      string                `json:"path" example:"songs/river.lyrics"`
	Body      string                `json:"body" example:"Down by the river"`
	Reference *models.ReferenceData `json:"reference"`
}

// Validate checks the path is set and the reference is usable.
func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Reference, validation.By(validateReference)),
	)
}

func validateReference(value any) error {
	ref, _ := value.(*models.ReferenceData)
	if ref == nil {
		return nil
	}
	return validation.ValidateStruct(ref,
		validation.Field(&ref.Kind, validation.Required, validation.In(models.ReferenceKindFile)),
		validation.Field(&ref.Locator, validation.Required),
	)
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path      string                `json:"path" example:"songs/river.lyrics"`
	Title     string                `json:"title" example:"Down by the river"`
	Checksum  string                `json:"checksum"`
	Reference *models.ReferenceData `json:"reference"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func newDocumentListItem(row index.DocumentRow) DocumentListItem {
	return DocumentListItem(row)
}

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents"`
	Total     int                `json:"total" example:"42"`
}

// RecentResponse lists recently opened or saved paths, most recent first.
type RecentResponse struct {
	Paths []string `json:"paths"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// RhymesResponse wraps rhyme candidates in collaborator order.
type RhymesResponse struct {
	Word       string                  `json:"word" example:"river"`
	Candidates []models.RhymeCandidate `json:"candidates"`
}

// AudioUploadResponse is returned after a successful audio upload.
type AudioUploadResponse struct {
	Filename string `json:"filename" example:"take1.mp3"`
	Size     int64  `json:"size" example:"12345"`
	// Locator is the value to store in a document's file reference.
	Locator string `json:"locator" example:"audio/take1.mp3"`
	URL     string `json:"url" example:"/api/audio/take1.mp3"`
}
