package archweb

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// canonicalRepos is the set of repository names archweb currently serves.
var canonicalRepos = []string{
	"Core",
	"Core-Testing",
	"Extra",
	"Extra-Testing",
	"Multilib",
	"Multilib-Testing",
	"KDE-Unstable",
	"GNOME-Unstable",
}

// defaultAliases maps retired or shorthand repository names to their
// current canonical name. community merged into extra in 2023.
var defaultAliases = map[string]string{
	"community":         "Extra",
	"community-testing": "Extra-Testing",
	"testing":           "Core-Testing",
}

// aliasesFile is the TOML structure of an optional repos.toml extension
// file: a single [aliases] table of name = "Canonical" pairs.
type aliasesFile struct {
	Aliases map[string]string `toml:"aliases"`
}

// NormalizeRepo maps a user-supplied repository name to the form the
// search API expects. Resolution order: alias map, canonical set
// (case-insensitive), then per-hyphen-segment title casing for names
// the registry does not know.
func NormalizeRepo(name string) string {
	return NormalizeRepoWith(defaultAliases, name)
}

// NormalizeRepoWith is NormalizeRepo with a custom alias map, as loaded
// by LoadAliases and merged with MergeAliases.
func NormalizeRepoWith(aliases map[string]string, name string) string {
	if name == "" {
		return ""
	}

	lower := strings.ToLower(name)
	if canonical, ok := aliases[lower]; ok {
		return canonical
	}

	for _, repo := range canonicalRepos {
		if strings.EqualFold(repo, name) {
			return repo
		}
	}

	return titleCaseRepo(name)
}

// titleCaseRepo uppercases the first letter of each hyphen-separated
// segment, so unknown names still match archweb's casing convention.
func titleCaseRepo(name string) string {
	segments := strings.Split(strings.ToLower(name), "-")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		segments[i] = strings.ToUpper(seg[:1]) + seg[1:]
	}
	return strings.Join(segments, "-")
}

// CanonicalRepos returns the known repository names
func CanonicalRepos() []string {
	out := make([]string, len(canonicalRepos))
	copy(out, canonicalRepos)
	return out
}

// LoadAliases reads an [aliases] table from a repos.toml file.
// A missing file yields an empty map, not an error.
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file aliasesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if file.Aliases == nil {
		return map[string]string{}, nil
	}

	// Alias keys are matched lowercased
	aliases := make(map[string]string, len(file.Aliases))
	for name, canonical := range file.Aliases {
		aliases[strings.ToLower(name)] = canonical
	}
	return aliases, nil
}

// MergeAliases overlays user aliases on top of the built-in set.
// User entries win on conflict.
func MergeAliases(user map[string]string) map[string]string {
	merged := make(map[string]string, len(defaultAliases)+len(user))
	for name, canonical := range defaultAliases {
		merged[name] = canonical
	}
	for name, canonical := range user {
		merged[name] = canonical
	}
	return merged
}
