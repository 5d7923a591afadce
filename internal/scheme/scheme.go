// Package scheme discovers Xcode scheme definition files and reports
// which schemes declare a given test target.
//
// Discovery is a fresh filesystem scan on every call. Schemes change
// between invocations (shared vs per-user, regenerated by Xcode), so
// nothing here is cached.
package scheme

import (
	"context"
	"encoding/xml"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Scheme is one parsed .xcscheme file.
type Scheme struct {
	Name        string
	TestTargets []string
}

// xcscheme is the subset of the scheme XML that matters here: the
// blueprint names of the targets the TestAction runs.
type xcscheme struct {
	XMLName    xml.Name `xml:"Scheme"`
	TestAction struct {
		Testables struct {
			References []struct {
				BuildableReference struct {
					BlueprintName string `xml:"BlueprintName,attr"`
				} `xml:"BuildableReference"`
			} `xml:"TestableReference"`
		} `xml:"Testables"`
	} `xml:"TestAction"`
}

// Discover walks root for .xcscheme files and parses each one,
// returning schemes ordered by name. Unreadable or malformed files
// are skipped; a failed walk yields an empty slice.
func Discover(ctx context.Context, root string) []Scheme {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable subtrees
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".xcscheme") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil || len(paths) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		schemes []Scheme
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s, ok := parseFile(path)
			if !ok {
				return nil
			}
			mu.Lock()
			schemes = append(schemes, s)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil
	}

	sort.Slice(schemes, func(i, j int) bool { return schemes[i].Name < schemes[j].Name })
	return schemes
}

func parseFile(path string) (Scheme, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scheme{}, false
	}
	var doc xcscheme
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Scheme{}, false
	}

	s := Scheme{Name: strings.TrimSuffix(filepath.Base(path), ".xcscheme")}
	for _, ref := range doc.TestAction.Testables.References {
		if name := ref.BuildableReference.BlueprintName; name != "" {
			s.TestTargets = append(s.TestTargets, name)
		}
	}
	return s, true
}

// TargetName reduces a possibly slash-qualified test identifier
// ("Target/Suite/test") to its target segment.
func TargetName(identifier string) string {
	target, _, _ := strings.Cut(identifier, "/")
	return target
}

// FindDeclaring returns the names of schemes under root whose test
// action declares the target named by identifier, ordered by name.
func FindDeclaring(ctx context.Context, root, identifier string) []string {
	return declaring(Discover(ctx, root), TargetName(identifier))
}

func declaring(schemes []Scheme, target string) []string {
	if target == "" {
		return nil
	}
	var names []string
	for _, s := range schemes {
		for _, t := range s.TestTargets {
			if t == target {
				names = append(names, s.Name)
				break
			}
		}
	}
	return names
}

// Finder adapts a project root to the triage layer's scheme lookup.
type Finder struct {
	Root string
}

// SchemesDeclaring scans the project root fresh and returns the
// schemes declaring the identifier's target, along with the target
// name that matched. When the qualified target segment matches
// nothing, the remaining segments are tried so a misplaced qualifier
// still produces a suggestion.
func (f Finder) SchemesDeclaring(ctx context.Context, identifier string) (string, []string) {
	schemes := Discover(ctx, f.Root)

	segments := strings.Split(identifier, "/")
	for _, segment := range segments {
		if names := declaring(schemes, segment); len(names) > 0 {
			return segment, names
		}
	}
	return TargetName(identifier), nil
}
