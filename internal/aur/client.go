// Package aur provides a client for the AUR RPC v5 API at
// aur.archlinux.org/rpc/v5/.
package aur

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/httpclient"
)

var (
	// ErrAPIError indicates a non-200 response from the RPC endpoint
	ErrAPIError = errors.New("AUR API error")
	// ErrRPC is returned when the RPC envelope carries type "error"
	ErrRPC = errors.New("AUR RPC error")
	// ErrDecode is returned when the RPC response cannot be parsed
	ErrDecode = errors.New("failed to decode AUR response")
	// ErrInvalidBy is returned for an unsupported search field
	ErrInvalidBy = errors.New("invalid search field")
)

// DefaultBaseURL is the production AUR endpoint.
const DefaultBaseURL = "https://aur.archlinux.org"

// validSearchBy is the set of ?by= values the RPC accepts.
var validSearchBy = map[string]bool{
	"name":          true,
	"name-desc":     true,
	"maintainer":    true,
	"depends":       true,
	"makedepends":   true,
	"optdepends":    true,
	"checkdepends":  true,
	"provides":      true,
	"conflicts":     true,
	"replaces":      true,
	"groups":        true,
	"submitter":     true,
	"keywords":      true,
	"comaintainers": true,
}

// Client handles communication with the AUR RPC API
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *httpclient.Client
}

// Package represents an AUR package from a search or info response.
// The list fields are only populated by info requests.
type Package struct {
	ID             int      `json:"ID"`
	Name           string   `json:"Name"`
	PackageBase    string   `json:"PackageBase"`
	PackageBaseID  int      `json:"PackageBaseID"`
	Version        string   `json:"Version"`
	Description    *string  `json:"Description"`
	URL            *string  `json:"URL"`
	NumVotes       int      `json:"NumVotes"`
	Popularity     float64  `json:"Popularity"`
	OutOfDate      *int64   `json:"OutOfDate"`
	Maintainer     *string  `json:"Maintainer"`
	Submitter      string   `json:"Submitter"`
	FirstSubmitted int64    `json:"FirstSubmitted"`
	LastModified   int64    `json:"LastModified"`
	URLPath        string   `json:"URLPath"`
	Depends        []string `json:"Depends"`
	MakeDepends    []string `json:"MakeDepends"`
	OptDepends     []string `json:"OptDepends"`
	CheckDepends   []string `json:"CheckDepends"`
	Conflicts      []string `json:"Conflicts"`
	Provides       []string `json:"Provides"`
	Replaces       []string `json:"Replaces"`
	Groups         []string `json:"Groups"`
	License        []string `json:"License"`
	Keywords       []string `json:"Keywords"`
	CoMaintainers  []string `json:"CoMaintainers"`
}

// rpcResponse is the envelope every RPC endpoint except suggest returns
type rpcResponse struct {
	Type        string    `json:"type"`
	Error       string    `json:"error"`
	ResultCount int       `json:"resultcount"`
	Results     []Package `json:"results"`
	Version     int       `json:"version"`
}

// NewClient creates a new AUR client with production defaults
func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		UserAgent:  httpclient.DefaultUserAgent,
		HTTPClient: httpclient.New(),
	}
}

// Search queries /rpc/v5/search/{arg}. The by parameter selects the
// field searched; empty means the RPC default (name-desc).
func (c *Client) Search(ctx context.Context, arg, by string) ([]Package, error) {
	if by != "" && !validSearchBy[by] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBy, by)
	}

	searchURL := fmt.Sprintf("%s/rpc/v5/search/%s", strings.TrimRight(c.BaseURL, "/"), url.PathEscape(arg))
	if by != "" {
		searchURL += "?by=" + url.QueryEscape(by)
	}

	resp, err := c.getRPC(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Suggest queries /rpc/v5/suggest/{arg}, which returns a bare string
// array of at most 20 package names starting with arg.
func (c *Client) Suggest(ctx context.Context, arg string) ([]string, error) {
	suggestURL := fmt.Sprintf("%s/rpc/v5/suggest/%s", strings.TrimRight(c.BaseURL, "/"), url.PathEscape(arg))

	body, err := c.get(ctx, suggestURL)
	if err != nil {
		return nil, err
	}

	var suggestions []string
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return suggestions, nil
}

// Info queries /rpc/v5/info with one arg[] parameter per name
func (c *Client) Info(ctx context.Context, names ...string) ([]Package, error) {
	if len(names) == 0 {
		return nil, nil
	}

	params := url.Values{}
	for _, name := range names {
		params.Add("arg[]", name)
	}
	infoURL := fmt.Sprintf("%s/rpc/v5/info?%s", strings.TrimRight(c.BaseURL, "/"), params.Encode())

	resp, err := c.getRPC(ctx, infoURL)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// getRPC fetches a URL and decodes the standard RPC envelope
func (c *Client) getRPC(ctx context.Context, rpcURL string) (*rpcResponse, error) {
	body, err := c.get(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	var resp rpcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if resp.Type == "error" {
		return nil, fmt.Errorf("%w: %s", ErrRPC, resp.Error)
	}

	return &resp, nil
}

// get performs a GET and returns the body for a 200 response
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("AUR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return io.ReadAll(resp.Body)
}

// PageURL returns the package's AUR web page
func (p *Package) PageURL() string {
	return "https://aur.archlinux.org/packages/" + url.PathEscape(p.Name)
}

// MaintainerName returns the maintainer, or "orphan" for an
// unmaintained package.
func (p *Package) MaintainerName() string {
	if p.Maintainer == nil || *p.Maintainer == "" {
		return "orphan"
	}
	return *p.Maintainer
}

// OutOfDateTime returns when the package was flagged out-of-date.
// The second return is false when the package is not flagged.
func (p *Package) OutOfDateTime() (time.Time, bool) {
	if p.OutOfDate == nil || *p.OutOfDate <= 0 {
		return time.Time{}, false
	}
	return time.Unix(*p.OutOfDate, 0).UTC(), true
}

// LastModifiedTime returns the last modification time.
// The second return is false when the timestamp is missing.
func (p *Package) LastModifiedTime() (time.Time, bool) {
	if p.LastModified <= 0 {
		return time.Time{}, false
	}
	return time.Unix(p.LastModified, 0).UTC(), true
}
