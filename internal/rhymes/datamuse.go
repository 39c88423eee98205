package rhymes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/lyricist/internal/apperr"
	"github.com/starford/lyricist/internal/models"
)

// DefaultDatamuseURL is the public Datamuse API.
const DefaultDatamuseURL = "https://api.datamuse.com"

// DatamuseClient implements Lookup with the Datamuse "rel_rhy" query.
type DatamuseClient struct {
	baseURL string
	max     int
	client  *http.Client
}

// NewDatamuseClient creates a client. Zero values fall back to defaults.
func NewDatamuseClient(baseURL string, max int, timeout time.Duration) *DatamuseClient {
	if baseURL == "" {
		baseURL = DefaultDatamuseURL
	}
	if max <= 0 {
		max = 50
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DatamuseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		max:     max,
		client:  &http.Client{Timeout: timeout},
	}
}

// Rhymes queries {base}/words?rel_rhy=<word>&max=<n>.
func (c *DatamuseClient) Rhymes(ctx context.Context, word string) ([]models.RhymeCandidate, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fmt.Errorf("%w: empty word", apperr.ErrLookup)
	}

	q := url.Values{}
	q.Set("rel_rhy", word)
	q.Set("max", strconv.Itoa(c.max))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/words?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", apperr.ErrLookup, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling datamuse: %v", apperr.ErrLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: datamuse returned status %d", apperr.ErrLookup, resp.StatusCode)
	}

	var out []models.RhymeCandidate
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", apperr.ErrLookup, err)
	}
	return out, nil
}
