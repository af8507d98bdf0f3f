package bot

import (
	"fmt"
	"strings"

	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/archweb"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/aur"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/lookup"
)

// timeLayout is how timestamps render in replies, always UTC
const timeLayout = "2006-01-02 15:04:05"

// Fixed reply lines for the failure classes
const (
	usageReply        = "Please give a package name. Usage: pkg <name> [repo], e.g. pkg linux core"
	networkErrorReply = "Network error or timeout while querying the official repositories."
	decodeErrorReply  = "Could not parse the official repository response."
	lookupErrorReply  = "Something went wrong while looking up the package."
)

// FormatResult renders a resolved package as the chat reply
func FormatResult(result *lookup.Result) string {
	switch result.Source {
	case lookup.SourceAUR:
		return formatAUR(result.AUR)
	default:
		return formatOfficial(result.Official)
	}
}

// FormatNotFound renders the reply for a name neither source knows
func FormatNotFound(name string) string {
	return fmt.Sprintf("No package named '%s' found in the official repositories or the AUR.", name)
}

// formatOfficial renders an official repository result, one field per
// line, N/A for absent values.
func formatOfficial(pkg *archweb.Package) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", orNA(pkg.Repo))
	fmt.Fprintf(&b, "Name: %s\n", orNA(pkg.PkgName))
	fmt.Fprintf(&b, "Version: %s\n", orNA(pkg.FullVersion()))
	fmt.Fprintf(&b, "Description: %s\n", orNA(pkg.PkgDesc))
	fmt.Fprintf(&b, "Packager: %s\n", orNA(pkg.Packager))
	fmt.Fprintf(&b, "Upstream: %s\n", orNA(pkg.URL))
	if flagged, ok := pkg.FlagDateTime(); ok {
		fmt.Fprintf(&b, "Flagged out-of-date: %s\n", flagged.UTC().Format(timeLayout))
	}
	fmt.Fprintf(&b, "Last updated: %s", officialLastUpdate(pkg))
	return b.String()
}

// officialLastUpdate formats last_update, degrading to a cleaned-up raw
// string when the timestamp does not parse.
func officialLastUpdate(pkg *archweb.Package) string {
	if pkg.LastUpdate == "" {
		return "N/A"
	}
	ts, err := pkg.LastUpdateTime()
	if err != nil {
		raw := strings.ReplaceAll(pkg.LastUpdate, "T", " ")
		return strings.TrimSuffix(raw, "Z")
	}
	return ts.UTC().Format(timeLayout)
}

// formatAUR renders an AUR result
func formatAUR(pkg *aur.Package) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: AUR\n")
	fmt.Fprintf(&b, "Name: %s\n", orNA(pkg.Name))
	fmt.Fprintf(&b, "Version: %s\n", orNA(pkg.Version))
	fmt.Fprintf(&b, "Description: %s\n", orNA(deref(pkg.Description)))
	fmt.Fprintf(&b, "Maintainer: %s%s\n", pkg.MaintainerName(), coMaintainers(pkg))
	fmt.Fprintf(&b, "Upstream: %s\n", upstreamOrNone(pkg))
	if flagged, ok := pkg.OutOfDateTime(); ok {
		fmt.Fprintf(&b, "Flagged out-of-date: %s\n", flagged.Format(timeLayout))
	}
	fmt.Fprintf(&b, "Last updated: %s\n", aurLastModified(pkg))
	fmt.Fprintf(&b, "Votes: %d\n", pkg.NumVotes)
	fmt.Fprintf(&b, "AUR page: %s", pkg.PageURL())
	return b.String()
}

// coMaintainers renders the co-maintainer suffix: " ( a b )"
func coMaintainers(pkg *aur.Package) string {
	if len(pkg.CoMaintainers) == 0 {
		return ""
	}
	return fmt.Sprintf(" ( %s )", strings.Join(pkg.CoMaintainers, " "))
}

// upstreamOrNone renders the project URL, "none" when the package has
// no upstream.
func upstreamOrNone(pkg *aur.Package) string {
	if pkg.URL == nil || *pkg.URL == "" {
		return "none"
	}
	return *pkg.URL
}

func aurLastModified(pkg *aur.Package) string {
	ts, ok := pkg.LastModifiedTime()
	if !ok {
		return "N/A"
	}
	return ts.Format(timeLayout)
}

// orNA substitutes N/A for empty values
func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
