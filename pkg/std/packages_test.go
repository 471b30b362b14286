package std

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsStandardPackage(t *testing.T) {
	tests := []struct {
		importPath string
		expected   bool
	}{
		{"fmt", true},
		{"net/http", true},
		{"crypto/tls", true},
		{"iter", true},
		{"C", true},
		{"github.com/rs/zerolog", false},
		{"golang.org/x/tools/go/ast/astutil", false},
		{"internal/something", false},
		{"net", true},
		{"net/", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.importPath, func(t *testing.T) {
			require.Equal(t, tt.expected, IsStandardPackage(tt.importPath))
		})
	}
}

func TestPackages(t *testing.T) {
	req := require.New(t)
	pkgs := Packages()

	req.Len(pkgs, len(StandardPackages)-1)
	req.NotContains(pkgs, "C", "cgo pseudo-package is not importable by name")
	req.Subset(pkgs, []string{"context", "encoding/json", "os", "strings"})

	sort.Strings(pkgs)
	for i := 1; i < len(pkgs); i++ {
		req.NotEqual(pkgs[i-1], pkgs[i], "duplicate package %q", pkgs[i])
	}
}
