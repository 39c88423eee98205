// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Lyricist tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lyricist/internal/apperr"
	"github.com/starford/lyricist/internal/document"
	"github.com/starford/lyricist/internal/models"
	"github.com/starford/lyricist/internal/rhymes"
	"github.com/starford/lyricist/internal/storage"
	"github.com/starford/lyricist/internal/words"
)

const formatResourceURI = "lyricist://document-format"

// Server wraps the MCP server with Lyricist tools.
type Server struct {
	mcp    *server.MCPServer
	docs   *document.Service
	lookup rhymes.Lookup
	store  storage.Provider
}

// New creates a new MCP server with all Lyricist tools registered.
func New(docs *document.Service, lookup rhymes.Lookup, store storage.Provider) *Server {
	s := &Server{docs: docs, lookup: lookup, store: store}

	s.mcp = server.NewMCPServer(
		"Lyricist",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through lyrics documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("open_document",
		mcp.WithDescription("Read a lyrics document. Returns the body without its header line "+
			"plus the associated audio reference, if any."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. songs/river.lyrics)")),
	), s.openDocument)

	s.mcp.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Write a lyrics document, creating it when missing. "+
			"Pass the body only: the header line is managed by Lyricist. Read the contract "+
			"via the get_format_contract tool or the "+formatResourceURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path ending with .lyrics or .txt")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Lyrics text without a header line")),
		mcp.WithString("audio", mcp.Description("Audio locator to associate. Omit to keep the current one, "+
			"pass an empty string to remove it.")),
	), s.saveDocument)

	s.mcp.AddTool(mcp.NewTool("find_rhymes",
		mcp.WithDescription("Look up words that rhyme with the given word, best first."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word to rhyme")),
		mcp.WithNumber("max", mcp.Description("Maximum number of rhymes to return (default 20)")),
	), s.findRhymes)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the Lyricist document format contract. "+
			"Call this before writing documents to understand the header line."),
	), s.getFormatContract)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all documents or documents in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("attach_audio",
		mcp.WithDescription("Store an audio take under audio/ and associate it with a .lyrics document. "+
			"Accepts an http(s) URL or a base64 data URI."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document to attach the audio to")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:audio/...;base64,... URI")),
		mcp.WithString("filename", mcp.Description("Optional target filename (e.g. take-1.mp3)")),
	), s.attachAudio)

	s.mcp.AddResource(
		mcp.NewResource(formatResourceURI, "Document Format Contract",
			mcp.WithResourceDescription("On-disk format of Lyricist documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type documentResult struct {
	Path      string                `json:"path"`
	Body      string                `json:"body"`
	Reference *models.ReferenceData `json:"reference,omitempty"`
	Playable  bool                  `json:"playable"`
	Syllables []int                 `json:"syllables"`
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.docs.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) openDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.docs.Open(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(documentResult{
		Path:      doc.Path,
		Body:      doc.Body,
		Reference: doc.Reference,
		Playable:  models.IsPlayable(doc.Reference),
		Syllables: words.CountLines(doc.Body),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.docs.Open(ctx, path)
	created := false
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		doc = s.docs.New()
		doc.Path = path
		created = true
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc.Body = body

	if raw, ok := req.GetArguments()["audio"]; ok {
		locator, _ := raw.(string)
		if strings.TrimSpace(locator) == "" {
			s.docs.RemoveAssociation(doc)
		} else if err := s.docs.Associate(doc, locator); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	if created {
		err = s.docs.Create(ctx, doc)
	} else {
		err = s.docs.Save(ctx, doc)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if created {
		return mcp.NewToolResultText(fmt.Sprintf("created: %s", doc.Path)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", doc.Path)), nil
}

func (s *Server) findRhymes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("max", 20)

	candidates, err := s.lookup.Rhymes(ctx, word)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		return mcp.NewToolResultText("no rhymes found"), nil
	}

	words := make([]string, 0, len(candidates))
	for _, c := range candidates {
		words = append(words, c.Word)
	}
	return mcp.NewToolResultText(strings.Join(words, "\n")), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := req.GetString("folder", "")

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getFormatContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatResourceURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
