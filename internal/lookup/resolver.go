// Package lookup resolves a package name against the official Arch
// repositories with an AUR fallback, and caches the results.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/archweb"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/aur"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/logger"
)

// Error variables for resolver errors
var (
	// ErrNotFound is returned when neither source has a match
	ErrNotFound = errors.New("package not found")
	// ErrOfficialUnavailable is returned when the official search fails.
	// The AUR is deliberately not consulted in that case: the fallback
	// runs only on a clean empty result.
	ErrOfficialUnavailable = errors.New("official repository search unavailable")
)

// DefaultMaxConcurrent bounds the parallel AUR info requests issued
// while ranking suggestions.
const DefaultMaxConcurrent = 5

// Source identifies which upstream produced a result
type Source string

const (
	SourceOfficial Source = "official"
	SourceAUR      Source = "AUR"
)

// Result is a resolved package from either source.
// Exactly one of Official and AUR is set, matching Source.
type Result struct {
	Source   Source           `json:"source"`
	Official *archweb.Package `json:"official,omitempty"`
	AUR      *aur.Package     `json:"aur,omitempty"`
	// FromCache is true when the result was served from the cache
	FromCache bool `json:"-"`
}

// Name returns the resolved package name
func (r *Result) Name() string {
	switch r.Source {
	case SourceOfficial:
		if r.Official != nil {
			return r.Official.PkgName
		}
	case SourceAUR:
		if r.AUR != nil {
			return r.AUR.Name
		}
	}
	return ""
}

// Summary is one row of a combined search listing
type Summary struct {
	Source      Source
	Repo        string
	Name        string
	Version     string
	Description string
	Votes       int
	OutOfDate   bool
}

// SearchOptions controls SearchAll behavior
type SearchOptions struct {
	// Repo filters official results to one repository (normalized name)
	Repo string
	// Limit caps the number of returned rows (0 = no cap)
	Limit int
	// OfficialOnly skips the AUR side of the listing
	OfficialOnly bool
	// AUROnly skips the official side of the listing
	AUROnly bool
}

// Resolver coordinates the official search, the AUR fallback, and the
// result cache.
type Resolver struct {
	official *archweb.Client
	aur      *aur.Client
	// cache is optional; a nil cache disables caching
	cache *Cache
	// maxConcurrent bounds the AUR info fan-out
	maxConcurrent int
	// officialOnly / aurOnly restrict Lookup to one source
	officialOnly bool
	aurOnly      bool
	log          *logger.Logger
}

// ResolverOption is a functional option for configuring Resolver
type ResolverOption func(*Resolver)

// WithCache sets the result cache
func WithCache(cache *Cache) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithOfficialClient sets a custom official repository client
func WithOfficialClient(client *archweb.Client) ResolverOption {
	return func(r *Resolver) {
		r.official = client
	}
}

// WithAURClient sets a custom AUR client
func WithAURClient(client *aur.Client) ResolverOption {
	return func(r *Resolver) {
		r.aur = client
	}
}

// WithMaxConcurrent sets the AUR info fan-out limit
func WithMaxConcurrent(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxConcurrent = n
		}
	}
}

// OfficialOnly restricts lookups to the official repositories
func OfficialOnly() ResolverOption {
	return func(r *Resolver) {
		r.officialOnly = true
	}
}

// AUROnly restricts lookups to the AUR
func AUROnly() ResolverOption {
	return func(r *Resolver) {
		r.aurOnly = true
	}
}

// NewResolver creates a resolver with production clients unless
// overridden by options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		maxConcurrent: DefaultMaxConcurrent,
		log:           logger.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.official == nil {
		r.official = archweb.NewClient()
	}
	if r.aur == nil {
		r.aur = aur.NewClient()
	}

	return r
}

// Lookup resolves a package name, trying the official repositories
// first and falling back to the AUR on a clean empty result.
// repo should already be normalized (see archweb.NormalizeRepo).
func (r *Resolver) Lookup(ctx context.Context, name, repo string) (*Result, error) {
	if r.cache != nil {
		if result, ok := r.cache.Get(name, repo); ok {
			result.FromCache = true
			r.log.Debug("cache hit for %s (repo %q)", name, repo)
			return result, nil
		}
	}

	if !r.aurOnly {
		resp, err := r.official.SearchByName(ctx, name, repo)
		switch {
		case errors.Is(err, archweb.ErrInvalidQuery):
			// The API rejects unknown repo choices with valid:false.
			// An unknown filter matches nothing, so it behaves like an
			// empty result and the AUR step still runs.
			r.log.Debug("official search rejected repo %q for %s, treating as no match", repo, name)
		case err != nil:
			return nil, fmt.Errorf("%w: %w", ErrOfficialUnavailable, err)
		case len(resp.Results) > 0:
			result := &Result{
				Source:   SourceOfficial,
				Official: &resp.Results[0],
			}
			r.store(name, repo, result)
			return result, nil
		default:
			r.log.Debug("%s not in the official repositories, checking the AUR", name)
		}
	}

	if r.officialOnly {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	pkg := r.lookupAUR(ctx, name)
	if pkg == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	result := &Result{
		Source: SourceAUR,
		AUR:    pkg,
	}
	r.store(name, repo, result)
	return result, nil
}

// store writes a result to the cache. Write failures are logged, not
// returned: the lookup already succeeded.
func (r *Resolver) store(name, repo string, result *Result) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(name, repo, result); err != nil {
		r.log.Warn("failed to cache lookup for %s: %v", name, err)
	}
}

// lookupAUR finds the best AUR match for a name: suggestions narrow
// the candidates, then the highest-voted candidate wins.
func (r *Resolver) lookupAUR(ctx context.Context, name string) *aur.Package {
	candidates, err := r.aur.Suggest(ctx, name)
	if err != nil {
		r.log.Warn("AUR suggest failed for %s: %v", name, err)
		candidates = nil
	}
	if len(candidates) == 0 {
		// Suggestions unavailable, try a direct info lookup
		candidates = []string{name}
	}

	// A single candidate, or the queried name leading the suggestions,
	// skips the vote ranking
	if len(candidates) == 1 || candidates[0] == name {
		pkgs, err := r.aur.Info(ctx, candidates[0])
		if err != nil {
			r.log.Warn("AUR info failed for %s: %v", candidates[0], err)
			return nil
		}
		if len(pkgs) == 0 {
			return nil
		}
		return &pkgs[0]
	}

	return r.bestByVotes(ctx, candidates)
}

// bestByVotes fetches info for each candidate concurrently and returns
// the package with the most votes. Per-candidate failures are skipped.
// Starting below zero means a lone zero-vote package still wins; ties
// keep the earlier candidate.
func (r *Resolver) bestByVotes(ctx context.Context, candidates []string) *aur.Package {
	results := make([]*aur.Package, len(candidates))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)

	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			pkgs, err := r.aur.Info(ctx, candidate)
			if err != nil {
				r.log.Warn("AUR info failed for %s: %v", candidate, err)
				return nil
			}
			if len(pkgs) == 0 {
				return nil
			}
			mu.Lock()
			results[i] = &pkgs[0]
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors, they log and skip
	g.Wait()

	var best *aur.Package
	maxVotes := -1
	for _, pkg := range results {
		if pkg == nil {
			continue
		}
		if pkg.NumVotes > maxVotes {
			maxVotes = pkg.NumVotes
			best = pkg
		}
	}
	return best
}

// SearchAll runs a keyword search against both sources and merges the
// results into a single listing. Unlike Lookup, a failing side degrades
// to the other with a warning: listings are best-effort.
func (r *Resolver) SearchAll(ctx context.Context, term string, opts SearchOptions) ([]Summary, error) {
	var summaries []Summary

	if !opts.AUROnly {
		resp, err := r.official.Search(ctx, archweb.SearchOptions{Query: term, Repo: opts.Repo})
		if err != nil {
			r.log.Warn("official search failed for %q: %v", term, err)
		} else {
			for i := range resp.Results {
				pkg := &resp.Results[i]
				_, flagged := pkg.FlagDateTime()
				summaries = append(summaries, Summary{
					Source:      SourceOfficial,
					Repo:        pkg.Repo,
					Name:        pkg.PkgName,
					Version:     pkg.FullVersion(),
					Description: pkg.PkgDesc,
					OutOfDate:   flagged,
				})
			}
		}
	}

	if !opts.OfficialOnly {
		pkgs, err := r.aur.Search(ctx, term, "name")
		if err != nil {
			r.log.Warn("AUR search failed for %q: %v", term, err)
		} else {
			for i := range pkgs {
				pkg := &pkgs[i]
				desc := ""
				if pkg.Description != nil {
					desc = *pkg.Description
				}
				_, flagged := pkg.OutOfDateTime()
				summaries = append(summaries, Summary{
					Source:      SourceAUR,
					Repo:        "aur",
					Name:        pkg.Name,
					Version:     pkg.Version,
					Description: desc,
					Votes:       pkg.NumVotes,
					OutOfDate:   flagged,
				})
			}
		}
	}

	if len(summaries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, term)
	}

	if opts.Limit > 0 && len(summaries) > opts.Limit {
		summaries = summaries[:opts.Limit]
	}

	return summaries, nil
}
