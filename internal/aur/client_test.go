package aur

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/httpclient"
)

func newTestClient(server *httptest.Server) *Client {
	hc := httpclient.New()
	hc.SetHTTPClient(server.Client())
	hc.SetDelayFunc(func(d time.Duration) {})
	return &Client{
		BaseURL:    server.URL,
		UserAgent:  "archpkg-test/1.0",
		HTTPClient: hc,
	}
}

const infoResponseJSON = `{
	"type": "multiinfo",
	"resultcount": 1,
	"version": 5,
	"results": [
		{
			"ID": 1193389,
			"Name": "yay",
			"PackageBase": "yay",
			"PackageBaseID": 115973,
			"Version": "12.3.5-1",
			"Description": "Yet another yogurt. Pacman wrapper and AUR helper written in go.",
			"URL": "https://github.com/Jguer/yay",
			"NumVotes": 2453,
			"Popularity": 44.53,
			"OutOfDate": null,
			"Maintainer": "jguer",
			"Submitter": "jguer",
			"FirstSubmitted": 1475346622,
			"LastModified": 1714233973,
			"URLPath": "/cgit/aur.git/snapshot/yay.tar.gz",
			"Depends": ["pacman>6.1"],
			"License": ["GPL-3.0-or-later"],
			"CoMaintainers": ["alerque"]
		}
	]
}`

func TestInfo(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(infoResponseJSON))
	}))
	defer server.Close()

	client := newTestClient(server)
	pkgs, err := client.Info(context.Background(), "yay")
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}

	if gotPath != "/rpc/v5/info" {
		t.Errorf("Expected info path, got %q", gotPath)
	}
	if gotQuery != "arg%5B%5D=yay" {
		t.Errorf("Unexpected query: %q", gotQuery)
	}

	if len(pkgs) != 1 {
		t.Fatalf("Expected 1 package, got %d", len(pkgs))
	}
	pkg := pkgs[0]
	if pkg.Name != "yay" || pkg.NumVotes != 2453 {
		t.Errorf("Unexpected package decode: %+v", pkg)
	}
	if pkg.Maintainer == nil || *pkg.Maintainer != "jguer" {
		t.Errorf("Unexpected maintainer: %v", pkg.Maintainer)
	}
	if len(pkg.CoMaintainers) != 1 || pkg.CoMaintainers[0] != "alerque" {
		t.Errorf("Unexpected co-maintainers: %v", pkg.CoMaintainers)
	}
}

func TestInfoBatchedArgs(t *testing.T) {
	var gotArgs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotArgs = r.URL.Query()["arg[]"]
		w.Write([]byte(`{"type": "multiinfo", "resultcount": 0, "results": [], "version": 5}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, err := client.Info(context.Background(), "yay", "paru", "pikaur"); err != nil {
		t.Fatalf("Info failed: %v", err)
	}

	if len(gotArgs) != 3 || gotArgs[0] != "yay" || gotArgs[1] != "paru" || gotArgs[2] != "pikaur" {
		t.Errorf("Expected one arg[] per name, got %v", gotArgs)
	}
}

func TestInfoNoNames(t *testing.T) {
	client := NewClient()
	pkgs, err := client.Info(context.Background())
	if err != nil || pkgs != nil {
		t.Errorf("Info with no names should be a no-op, got %v, %v", pkgs, err)
	}
}

func TestSearch(t *testing.T) {
	var gotPath, gotBy string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBy = r.URL.Query().Get("by")
		w.Write([]byte(`{"type": "search", "resultcount": 2, "version": 5, "results": [
			{"Name": "yay", "Version": "12.3.5-1", "NumVotes": 2453},
			{"Name": "yay-bin", "Version": "12.3.5-1", "NumVotes": 1268}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	pkgs, err := client.Search(context.Background(), "yay", "name")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotPath != "/rpc/v5/search/yay" {
		t.Errorf("Expected search path, got %q", gotPath)
	}
	if gotBy != "name" {
		t.Errorf("Expected by=name, got %q", gotBy)
	}
	if len(pkgs) != 2 {
		t.Errorf("Expected 2 results, got %d", len(pkgs))
	}
}

func TestSearchInvalidBy(t *testing.T) {
	client := NewClient()
	_, err := client.Search(context.Background(), "yay", "flavor")
	if !errors.Is(err, ErrInvalidBy) {
		t.Errorf("Expected ErrInvalidBy, got %v", err)
	}
}

func TestSearchRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type": "error", "error": "Too many package results.", "resultcount": 0, "results": [], "version": 5}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Search(context.Background(), "a", "name")
	if !errors.Is(err, ErrRPC) {
		t.Errorf("Expected ErrRPC, got %v", err)
	}
}

func TestSuggest(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`["yay", "yay-bin", "yay-git"]`))
	}))
	defer server.Close()

	client := newTestClient(server)
	suggestions, err := client.Suggest(context.Background(), "yay")
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}

	if gotPath != "/rpc/v5/suggest/yay" {
		t.Errorf("Expected suggest path, got %q", gotPath)
	}
	if len(suggestions) != 3 || suggestions[0] != "yay" {
		t.Errorf("Unexpected suggestions: %v", suggestions)
	}
}

func TestSuggestNonArrayPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": "object"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Suggest(context.Background(), "yay")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode for non-array payload, got %v", err)
	}
}

func TestAPIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Info(context.Background(), "yay")
	if !errors.Is(err, ErrAPIError) {
		t.Errorf("Expected ErrAPIError, got %v", err)
	}
}

func TestMaintainerName(t *testing.T) {
	jguer := "jguer"
	empty := ""

	tests := []struct {
		name string
		pkg  Package
		want string
	}{
		{"maintained", Package{Maintainer: &jguer}, "jguer"},
		{"orphan nil", Package{}, "orphan"},
		{"orphan empty", Package{Maintainer: &empty}, "orphan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pkg.MaintainerName(); got != tt.want {
				t.Errorf("MaintainerName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageURL(t *testing.T) {
	pkg := Package{Name: "yay"}
	want := "https://aur.archlinux.org/packages/yay"
	if got := pkg.PageURL(); got != want {
		t.Errorf("PageURL() = %q, want %q", got, want)
	}
}

func TestTimestampHelpers(t *testing.T) {
	ts := int64(1714233973)
	pkg := Package{OutOfDate: &ts, LastModified: ts}

	ood, ok := pkg.OutOfDateTime()
	if !ok {
		t.Fatal("Expected out-of-date timestamp")
	}
	if ood.Unix() != ts {
		t.Errorf("OutOfDateTime() = %v, want unix %d", ood, ts)
	}

	lm, ok := pkg.LastModifiedTime()
	if !ok || lm.Unix() != ts {
		t.Errorf("LastModifiedTime() = %v, %v", lm, ok)
	}

	bare := Package{}
	if _, ok := bare.OutOfDateTime(); ok {
		t.Error("Expected no out-of-date time for nil field")
	}
	if _, ok := bare.LastModifiedTime(); ok {
		t.Error("Expected no last-modified time for zero field")
	}
}
