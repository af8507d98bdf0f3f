// Package bot turns a chat message into a package lookup reply.
package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/archweb"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/logger"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/lookup"
)

// ErrUsage is returned when the message carries no package name
var ErrUsage = errors.New("no package name given")

// commandTrigger is the chat command word. Some hosts strip it before
// dispatching, some pass the full message; both forms parse.
const commandTrigger = "pkg"

// Query is a parsed lookup request
type Query struct {
	// Name is the package name to look up
	Name string
	// Repo is the normalized repository filter, empty for no filter
	Repo string
}

// Resolver is the lookup dependency of the handler
type Resolver interface {
	Lookup(ctx context.Context, name, repo string) (*lookup.Result, error)
}

// Handler answers chat messages. One message in, one reply out;
// failures map to user-facing reply lines, never to errors.
type Handler struct {
	resolver Resolver
	log      *logger.Logger
}

// NewHandler creates a handler around a resolver
func NewHandler(resolver Resolver) *Handler {
	return &Handler{
		resolver: resolver,
		log:      logger.Default(),
	}
}

// ParseCommand extracts the package name and optional repository filter
// from raw message text, e.g. "pkg linux core". The leading trigger
// word is optional. Extra fields are ignored.
func ParseCommand(text string) (Query, error) {
	fields := strings.Fields(text)
	if len(fields) > 0 && strings.EqualFold(fields[0], commandTrigger) {
		fields = fields[1:]
	}

	if len(fields) == 0 {
		return Query{}, ErrUsage
	}

	query := Query{Name: fields[0]}
	if len(fields) > 1 {
		query.Repo = archweb.NormalizeRepo(fields[1])
	}
	return query, nil
}

// Respond turns one chat message into one plain-text reply
func (h *Handler) Respond(ctx context.Context, text string) string {
	query, err := ParseCommand(text)
	if err != nil {
		return usageReply
	}

	result, err := h.resolver.Lookup(ctx, query.Name, query.Repo)
	if err != nil {
		return h.errorReply(query.Name, err)
	}

	return FormatResult(result)
}

// errorReply maps a lookup failure to its reply line
func (h *Handler) errorReply(name string, err error) string {
	switch {
	case errors.Is(err, lookup.ErrNotFound):
		return FormatNotFound(name)
	case errors.Is(err, lookup.ErrOfficialUnavailable):
		h.log.Error("official lookup failed for %q: %v", name, err)
		if errors.Is(err, archweb.ErrDecode) {
			return decodeErrorReply
		}
		return networkErrorReply
	default:
		h.log.Error("lookup failed for %q: %v", name, err)
		return lookupErrorReply
	}
}
