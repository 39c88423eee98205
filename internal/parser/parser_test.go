package parser

import (
	"testing"

	"github.com/starford/lyricist/internal/apperr"
	"github.com/starford/lyricist/internal/models"
)

const nullHeaderDoc = `{"isDocumentMarker":true,"referencedData":null}` + "\nVerse one"

func TestParse_ReservedExtensionStripsHeader(t *testing.T) {
	r := Parse("song.lyrics", []byte(nullHeaderDoc))
	if r.Body != "Verse one" {
		t.Errorf("body = %q, want %q", r.Body, "Verse one")
	}
	if r.Reference != nil {
		t.Errorf("reference = %+v, want nil", r.Reference)
	}
	if !r.HasHeader {
		t.Error("expected header to be consumed")
	}
}

func TestParse_OtherExtensionKeepsHeader(t *testing.T) {
	r := Parse("song.txt", []byte(nullHeaderDoc))
	if r.Body != nullHeaderDoc {
		t.Errorf("body = %q, want full text", r.Body)
	}
	if r.Reference != nil || r.HasHeader {
		t.Errorf("unexpected header interpretation: %+v", r)
	}
}

func TestParse_FileReference(t *testing.T) {
	data := `{"lyrics":true,"referencedData":{"dataType":"file","data":"/music/demo.mp3"}}` + "\nLine one\nLine two\n"
	r := Parse("song.lyrics", []byte(data))
	if r.Reference == nil || r.Reference.Locator != "/music/demo.mp3" || r.Reference.Kind != "file" {
		t.Fatalf("reference = %+v", r.Reference)
	}
	if r.Body != "Line one\nLine two\n" {
		t.Errorf("body = %q", r.Body)
	}
	if r.Title != "Line one" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParse_NoHeader(t *testing.T) {
	r := Parse("song.lyrics", []byte("Hello world\nsecond line"))
	if r.HasHeader {
		t.Error("prose first line must not be a header")
	}
	if r.Body != "Hello world\nsecond line" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoNewline(t *testing.T) {
	r := Parse("song.lyrics", []byte("{}"))
	if !r.HasHeader || r.Body != "" {
		t.Errorf("whole-file header: got %+v", r)
	}
	r = Parse("song.lyrics", []byte("just words"))
	if r.HasHeader || r.Body != "just words" {
		t.Errorf("single prose line: got %+v", r)
	}
}

func TestParse_EmptyFile(t *testing.T) {
	r := Parse("song.lyrics", nil)
	if r.HasHeader || r.Body != "" || r.Reference != nil {
		t.Errorf("empty file: got %+v", r)
	}
}

func TestParse_MalformedReferenceIsStrippedNotRaised(t *testing.T) {
	r := Parse("song.lyrics", []byte(`{"referencedData":5}`+"\nBody"))
	if r.Body != "Body" || r.Reference != nil {
		t.Errorf("got %+v", r)
	}
	if r.Malformed == nil {
		t.Fatal("expected Malformed to be set")
	}
	if !isHeaderParse(r.Malformed) {
		t.Errorf("Malformed = %v, want header parse error", r.Malformed)
	}
}

func TestAssemble(t *testing.T) {
	ref := &models.ReferenceData{Kind: models.ReferenceKindFile, Locator: "/music/demo.mp3"}
	header := `{"lyrics":true,"referencedData":{"dataType":"file","data":"/music/demo.mp3"}}` + "\n"

	tests := []struct {
		name string
		path string
		ref  *models.ReferenceData
		want string
	}{
		{"reserved with reference", "a.lyrics", ref, header + "Body"},
		{"reserved without reference", "a.lyrics", nil, "Body"},
		{"plain text with reference", "a.txt", ref, "Body"},
		{"plain text without reference", "a.txt", nil, "Body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Assemble(tt.path, "Body", tt.ref)); got != tt.want {
				t.Errorf("Assemble = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssembleThenParse_Idempotent(t *testing.T) {
	ref := &models.ReferenceData{Kind: models.ReferenceKindFile, Locator: "takes/take 3.wav"}
	body := "{\"json\":\"looking\"} first line\nsecond\n"
	r := Parse("x.lyrics", Assemble("x.lyrics", body, ref))
	if r.Body != body {
		t.Errorf("body = %q, want %q", r.Body, body)
	}
	if r.Reference == nil || *r.Reference != *ref {
		t.Errorf("reference = %+v, want %+v", r.Reference, ref)
	}
}

func TestDeriveTitle(t *testing.T) {
	if got := deriveTitle("\n\n  Hook line  \nrest"); got != "Hook line" {
		t.Errorf("title = %q", got)
	}
	if got := deriveTitle(""); got != "" {
		t.Errorf("title = %q, want empty", got)
	}
}

func isHeaderParse(err error) bool {
	_, ok := err.(*apperr.HeaderParseError)
	return ok
}
