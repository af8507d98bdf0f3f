// Package archweb provides a client for the Arch Linux official package
// search API at archlinux.org/packages/search/json/.
package archweb

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
	// ErrAPIError indicates a non-200 response from the search API
	ErrAPIError = errors.New("archweb API error")
	// ErrInvalidQuery is returned when the API rejects the search parameters
	ErrInvalidQuery = errors.New("archweb rejected the search query")
	// ErrDecode is returned when the API response cannot be parsed
	ErrDecode = errors.New("failed to decode archweb response")
)

// DefaultBaseURL is the production archweb endpoint.
const DefaultBaseURL = "https://archlinux.org"

// Client handles communication with the official package search API
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *httpclient.Client
}

// Package represents a single package in a search response.
// Field names follow the archweb JSON schema.
type Package struct {
	PkgName        string   `json:"pkgname"`
	PkgBase        string   `json:"pkgbase"`
	Repo           string   `json:"repo"`
	Arch           string   `json:"arch"`
	PkgVer         string   `json:"pkgver"`
	PkgRel         string   `json:"pkgrel"`
	Epoch          int      `json:"epoch"`
	PkgDesc        string   `json:"pkgdesc"`
	URL            string   `json:"url"`
	Filename       string   `json:"filename"`
	CompressedSize int64    `json:"compressed_size"`
	InstalledSize  int64    `json:"installed_size"`
	BuildDate      string   `json:"build_date"`
	LastUpdate     string   `json:"last_update"`
	FlagDate       *string  `json:"flag_date"`
	Maintainers    []string `json:"maintainers"`
	Packager       string   `json:"packager"`
	Groups         []string `json:"groups"`
	Licenses       []string `json:"licenses"`
	Conflicts      []string `json:"conflicts"`
	Provides       []string `json:"provides"`
	Replaces       []string `json:"replaces"`
	Depends        []string `json:"depends"`
	OptDepends     []string `json:"optdepends"`
	MakeDepends    []string `json:"makedepends"`
	CheckDepends   []string `json:"checkdepends"`
}

// SearchResponse is the envelope returned by the search endpoint
type SearchResponse struct {
	Version  int       `json:"version"`
	Limit    int       `json:"limit"`
	Valid    bool      `json:"valid"`
	Page     int       `json:"page"`
	NumPages int       `json:"num_pages"`
	Results  []Package `json:"results"`
}

// SearchOptions holds the supported search parameters.
// Name matches the exact package name; Query is a keyword search.
type SearchOptions struct {
	Name       string
	Query      string
	Repo       string
	Arch       string
	Maintainer string
	Packager   string
}

// NewClient creates a new archweb client with production defaults
func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		UserAgent:  httpclient.DefaultUserAgent,
		HTTPClient: httpclient.New(),
	}
}

// Search queries the package search API with the given options
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*SearchResponse, error) {
	params := url.Values{}
	if opts.Name != "" {
		params.Set("name", opts.Name)
	}
	if opts.Query != "" {
		params.Set("q", opts.Query)
	}
	if opts.Repo != "" {
		params.Set("repo", opts.Repo)
	}
	if opts.Arch != "" {
		params.Set("arch", opts.Arch)
	}
	if opts.Maintainer != "" {
		params.Set("maintainer", opts.Maintainer)
	}
	if opts.Packager != "" {
		params.Set("packager", opts.Packager)
	}

	searchURL := fmt.Sprintf("%s/packages/search/json/?%s",
		strings.TrimRight(c.BaseURL, "/"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("archweb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, params.Encode())
	}

	return &result, nil
}

// SearchByName looks up packages by exact name, optionally filtered by
// repository. The repo filter should already be normalized.
func (c *Client) SearchByName(ctx context.Context, name, repo string) (*SearchResponse, error) {
	return c.Search(ctx, SearchOptions{Name: name, Repo: repo})
}

// FullVersion returns the complete version string as pacman displays it:
// [epoch:]pkgver-pkgrel
func (p *Package) FullVersion() string {
	if p.Epoch > 0 {
		return fmt.Sprintf("%d:%s-%s", p.Epoch, p.PkgVer, p.PkgRel)
	}
	return fmt.Sprintf("%s-%s", p.PkgVer, p.PkgRel)
}

// LastUpdateTime parses the last_update field as RFC 3339
func (p *Package) LastUpdateTime() (time.Time, error) {
	return time.Parse(time.RFC3339, p.LastUpdate)
}

// FlagDateTime parses the flag_date field as RFC 3339.
// Returns a zero time and false when the package is not flagged.
func (p *Package) FlagDateTime() (time.Time, bool) {
	if p.FlagDate == nil || *p.FlagDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, *p.FlagDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
