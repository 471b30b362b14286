package formatter

import (
	"go/token"
	"strings"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
)

// Import represents a single import statement
type Import struct {
	Name        string   // alias name, empty if no alias
	Path        string   // import path
	Doc         []string // comment lines above the spec
	Comment     string   // inline comment
	Group       ImportGroup
	OrgIndex    int    // index in the org list for ordering
	ProjectName string // project name within org for sub-grouping
}

// ImportGroup represents different types of import groups
type ImportGroup int

const (
	StdGroup ImportGroup = iota
	ThirdPartyGroup
	ProjectGroup
	OrgGroupBase = 100 // Org groups will be dynamically assigned starting from this base
)

// Qualifier is the name the import is referenced by in the file: the alias
// when present, otherwise the package name implied by the path. Dot imports
// have an empty qualifier.
func (i Import) Qualifier() string {
	switch i.Name {
	case "":
		return PackageName(i.Path)
	case ".":
		return ""
	default:
		return i.Name
	}
}

func (i Import) existing() imports.Existing {
	return imports.Existing{Module: i.Path, Qualifier: i.Qualifier()}
}

// PackageName guesses the package name of importPath from its last element,
// skipping a major version suffix such as /v2 and a gopkg.in style .vN.
func PackageName(importPath string) string {
	name := strings.TrimPrefix(nameElement(importPath), "go-")
	return strings.ReplaceAll(name, "-", "_")
}

// conventionalName reports whether the package name of importPath can be
// read off its path unchanged. Otherwise PackageName is only a guess.
func conventionalName(importPath string) bool {
	return token.IsIdentifier(nameElement(importPath))
}

// nameElement returns the path element a package name is derived from
func nameElement(importPath string) string {
	elems := strings.Split(importPath, "/")
	name := elems[len(elems)-1]
	if isMajorVersion(name) && len(elems) > 1 {
		name = elems[len(elems)-2]
	}
	if i := strings.LastIndex(name, ".v"); i > 0 && isMajorVersion(name[i+1:]) {
		name = name[:i]
	}
	return name
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
