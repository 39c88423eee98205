package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/lyricist/internal/models"
	"github.com/starford/lyricist/internal/parser"
)

const (
	maxAudioSize  = 50 << 20 // 50 MB
	audioDir      = "audio"
	fetchTimeout  = 60 * time.Second
	maxRedirects  = 5
	metadataHost  = "metadata.google.internal"
	fallbackAudio = ".mp3"
)

// audioSignature recognises one container format by its leading bytes.
type audioSignature struct {
	ext   string
	match func(b []byte) bool
}

// audioSignatures is ordered so that sniffing picks the most specific
// container first; MPEG frame sync is checked last.
var audioSignatures = []audioSignature{
	{".flac", func(b []byte) bool { return bytes.HasPrefix(b, []byte("fLaC")) }},
	{".ogg", func(b []byte) bool { return bytes.HasPrefix(b, []byte("OggS")) }},
	{".wav", func(b []byte) bool { return riff(b, "RIFF", "WAVE") }},
	{".aiff", func(b []byte) bool { return riff(b, "FORM", "AIFF") || riff(b, "FORM", "AIFC") }},
	{".m4a", func(b []byte) bool { return len(b) >= 8 && string(b[4:8]) == "ftyp" }},
	{".aac", func(b []byte) bool { return bytes.HasPrefix(b, []byte("ADIF")) || frameSync(b, 0xF0) }},
	{".mp3", func(b []byte) bool { return bytes.HasPrefix(b, []byte("ID3")) || frameSync(b, 0xE0) }},
}

var (
	audioMIME = map[string]string{
		"audio/mpeg":      ".mp3",
		"audio/mp3":       ".mp3",
		"audio/wav":       ".wav",
		"audio/wave":      ".wav",
		"audio/x-wav":     ".wav",
		"audio/flac":      ".flac",
		"audio/x-flac":    ".flac",
		"audio/ogg":       ".ogg",
		"application/ogg": ".ogg",
		"audio/aiff":      ".aiff",
		"audio/x-aiff":    ".aiff",
		"audio/mp4":       ".m4a",
		"audio/x-m4a":     ".m4a",
		"audio/aac":       ".aac",
	}

	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// audioSource is a downloaded or inlined take before it is stored.
type audioSource struct {
	data []byte
	// ext is derived from the declared media type, empty when unknown.
	ext string
	// name is the last path element of a downloaded URL, if any.
	name string
}

type attachResult struct {
	Document string `json:"document"`
	Locator  string `json:"locator"`
	Size     int    `json:"size"`
	Playable bool   `json:"playable"`
}

// attachAudio stores an audio take under audio/ and points the document at it.
func (s *Server) attachAudio(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docPath, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !parser.IsReserved(docPath) {
		return mcp.NewToolResultError(fmt.Sprintf("audio can only be attached to .lyrics documents: %s", docPath)), nil
	}

	doc, err := s.docs.Open(ctx, docPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("open %s: %v", docPath, err)), nil
	}

	src, err := loadAudio(ctx, rawURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := audioFilename(src, req.GetString("filename", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	locator := path.Join(audioDir, name)
	if _, readErr := s.store.Read(locator); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("file already exists: %s", locator)), nil
	}
	if err := s.store.Write(locator, src.data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save audio: %v", err)), nil
	}

	if err := s.docs.Associate(doc, locator); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.docs.Save(ctx, doc); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save %s: %v", docPath, err)), nil
	}

	out, _ := json.Marshal(attachResult{
		Document: doc.Path,
		Locator:  locator,
		Size:     len(src.data),
		Playable: models.IsPlayable(doc.Reference),
	})
	return mcp.NewToolResultText(string(out)), nil
}

// loadAudio reads a take from a base64 data URI or an http(s) URL.
func loadAudio(ctx context.Context, rawURL string) (audioSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return audioSource{}, fmt.Errorf("invalid URL: %w", err)
	}

	var src audioSource
	switch u.Scheme {
	case "data":
		src, err = parseDataURI(rawURL)
	case "http", "https":
		src, err = download(ctx, u)
	default:
		return audioSource{}, fmt.Errorf("unsupported scheme: %q (use data:, http or https)", u.Scheme)
	}
	if err != nil {
		return audioSource{}, err
	}
	if len(src.data) > maxAudioSize {
		return audioSource{}, fmt.Errorf("file too large: %d bytes (max %d)", len(src.data), maxAudioSize)
	}
	return src, nil
}

// parseDataURI accepts data:<audio type>;base64,<payload>.
func parseDataURI(uri string) (audioSource, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return audioSource{}, fmt.Errorf("invalid data URI: missing comma separator")
	}
	mediaType, params, _ := strings.Cut(meta, ";")
	if !strings.Contains(";"+params, ";base64") {
		return audioSource{}, fmt.Errorf("only base64 data URIs are supported")
	}
	ext, ok := audioMIME[strings.ToLower(mediaType)]
	if !ok {
		return audioSource{}, fmt.Errorf("unsupported media type in data URI: %q", mediaType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return audioSource{}, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	return audioSource{data: data, ext: ext}, nil
}

// download fetches u, refusing hosts that resolve to local or metadata
// addresses on the first hop and on every redirect.
func download(ctx context.Context, u *url.URL) (audioSource, error) {
	if err := checkBlockedHost(u.Hostname()); err != nil {
		return audioSource{}, err
	}

	client := &http.Client{
		Timeout: fetchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects (max %d)", maxRedirects)
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return audioSource{}, fmt.Errorf("invalid request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return audioSource{}, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return audioSource{}, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize+1))
	if err != nil {
		return audioSource{}, fmt.Errorf("read body failed: %w", err)
	}

	mediaType, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	name := path.Base(resp.Request.URL.Path)
	if name == "." || name == "/" || !strings.Contains(name, ".") {
		name = ""
	}
	return audioSource{
		data: data,
		ext:  audioMIME[strings.ToLower(strings.TrimSpace(mediaType))],
		name: name,
	}, nil
}

// audioFilename picks the stored name for src: the requested name, the
// URL's name, or a uuid. The extension must be playable and agree with the
// content's signature.
func audioFilename(src audioSource, requested string) (string, error) {
	name := requested
	if name == "" {
		name = src.name
	}
	if name == "" {
		ext := src.ext
		if ext == "" {
			ext = sniffAudio(src.data)
		}
		if ext == "" {
			ext = fallbackAudio
		}
		name = uuid.NewString() + ext
	}
	name = sanitizeFilename(name)

	ref := &models.ReferenceData{Kind: models.ReferenceKindFile, Locator: name}
	if !models.IsPlayable(ref) {
		return "", fmt.Errorf("unsupported audio extension: %s (allowed: %s)",
			path.Ext(name), strings.Join(models.SupportedAudioExtensions, ", "))
	}
	if err := validateMagicBytes(src.data, path.Ext(name)); err != nil {
		return "", err
	}
	return name, nil
}

// checkBlockedHost rejects loopback, link-local, unspecified and cloud
// metadata addresses. Every resolved address is checked.
func checkBlockedHost(host string) error {
	if strings.EqualFold(host, metadataHost) {
		return fmt.Errorf("blocked host: %s", host)
	}

	var addrs []netip.Addr
	if addr, err := netip.ParseAddr(host); err == nil {
		addrs = append(addrs, addr.Unmap())
	} else {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil {
			return nil //nolint:nilerr // let http.Client report DNS failures
		}
		for _, ip := range ips {
			if a, ok := netip.AddrFromSlice(ip); ok {
				addrs = append(addrs, a.Unmap())
			}
		}
	}

	for _, a := range addrs {
		if a.IsLoopback() || a.IsLinkLocalUnicast() || a.IsUnspecified() {
			return fmt.Errorf("blocked host: %s resolves to %s", host, a)
		}
	}
	return nil
}

// sanitizeFilename strips directories and characters unsafe in a locator.
func sanitizeFilename(name string) string {
	name = unsafeNameRe.ReplaceAllString(path.Base(strings.ReplaceAll(name, `\`, "/")), "_")
	if name == "" || name == "." || name == ".." {
		return uuid.NewString()
	}
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + strings.ToLower(ext)
}

// sniffAudio returns the extension whose signature data carries, or "".
func sniffAudio(data []byte) string {
	for _, sig := range audioSignatures {
		if sig.match(data) {
			return sig.ext
		}
	}
	return ""
}

// validateMagicBytes verifies file content matches the declared extension.
func validateMagicBytes(data []byte, ext string) error {
	ext = strings.ToLower(ext)
	for _, sig := range audioSignatures {
		if sig.ext == ext && sig.match(data) {
			return nil
		}
	}
	return fmt.Errorf("content does not match extension %s", ext)
}

func riff(b []byte, chunk, form string) bool {
	return len(b) >= 12 && string(b[:4]) == chunk && string(b[8:12]) == form
}

// frameSync reports whether b starts with an MPEG frame header whose
// second byte has all bits of mask set.
func frameSync(b []byte, mask byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1]&mask == mask
}
