package main

import (
	"time"

	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/archweb"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/aur"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/config"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/httpclient"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/logger"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/lookup"
)

// resolverOptions carries the per-command flags that shape the resolver
type resolverOptions struct {
	noCache      bool
	timeoutSec   int
	officialOnly bool
	aurOnly      bool
}

// loadConfig loads the config file, honoring the global --config flag
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// newHTTPClient builds a retrying client from config, with an optional
// timeout override from a command flag.
func newHTTPClient(cfg *config.Config, timeoutSec int) *httpclient.Client {
	rc := httpclient.DefaultRetryConfig()
	rc.MaxRetries = cfg.HTTP.Retries
	rc.Timeout = cfg.Timeout()
	if timeoutSec > 0 {
		rc.Timeout = time.Duration(timeoutSec) * time.Second
	}

	client := httpclient.NewWithConfig(rc)
	client.SetUserAgent(cfg.HTTP.UserAgent)
	return client
}

// buildResolver wires the API clients and cache into a resolver
func buildResolver(cfg *config.Config, opts resolverOptions) *lookup.Resolver {
	userAgent := cfg.HTTP.UserAgent
	if userAgent == "" {
		userAgent = httpclient.DefaultUserAgent
	}

	officialClient := &archweb.Client{
		BaseURL:    cfg.Archweb.BaseURL,
		UserAgent:  userAgent,
		HTTPClient: newHTTPClient(cfg, opts.timeoutSec),
	}
	aurClient := &aur.Client{
		BaseURL:    cfg.AUR.BaseURL,
		UserAgent:  userAgent,
		HTTPClient: newHTTPClient(cfg, opts.timeoutSec),
	}

	resolverOpts := []lookup.ResolverOption{
		lookup.WithOfficialClient(officialClient),
		lookup.WithAURClient(aurClient),
	}

	if cfg.Cache.Enabled && !opts.noCache {
		if cache := openCache(cfg); cache != nil {
			resolverOpts = append(resolverOpts, lookup.WithCache(cache))
		}
	}
	if opts.officialOnly {
		resolverOpts = append(resolverOpts, lookup.OfficialOnly())
	}
	if opts.aurOnly {
		resolverOpts = append(resolverOpts, lookup.AUROnly())
	}

	return lookup.NewResolver(resolverOpts...)
}

// openCache opens the lookup cache. A cache that cannot be opened
// disables caching with a warning rather than failing the command.
func openCache(cfg *config.Config) *lookup.Cache {
	dir, err := cfg.CacheDir()
	if err != nil {
		logger.Warn("cache disabled: %v", err)
		return nil
	}

	cache, err := lookup.NewCache(dir, lookup.WithTTL(cfg.CacheTTL()))
	if err != nil {
		logger.Warn("cache disabled: %v", err)
		return nil
	}
	return cache
}

// normalizeRepoArg maps a user-supplied repo name to its canonical
// form, consulting the optional repos.toml alias file.
func normalizeRepoArg(name string) string {
	if name == "" {
		return ""
	}

	if path, err := config.AliasesPath(); err == nil {
		user, err := archweb.LoadAliases(path)
		if err != nil {
			logger.Warn("ignoring repos.toml: %v", err)
		} else if len(user) > 0 {
			return archweb.NormalizeRepoWith(archweb.MergeAliases(user), name)
		}
	}

	return archweb.NormalizeRepo(name)
}
