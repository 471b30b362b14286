package utils

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// maxModuleDepth bounds the walk up from a file looking for go.mod
const maxModuleDepth = 20

// FindModuleRoot returns the directory holding the nearest go.mod above
// filePath and the module path it declares. Both are empty when none is found.
func FindModuleRoot(filePath string) (dir, module string) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", ""
	}

	dir = absPath
	for i := 0; i < maxModuleDepth; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent

		content, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err != nil {
			continue
		}
		if module := modfile.ModulePath(content); module != "" {
			return dir, module
		}
	}
	return "", ""
}

// GetProjectModule extracts the module name from go.mod or infers from file path
func GetProjectModule(filePath string) string {
	if _, module := FindModuleRoot(filePath); module != "" {
		return module
	}

	// Fallback: try to infer from a GOPATH-style file path
	if strings.Contains(filePath, "/src/") {
		parts := strings.Split(filePath, "/src/")
		if len(parts) > 1 {
			pathParts := strings.Split(parts[1], "/")
			if len(pathParts) >= 3 {
				return strings.Join(pathParts[:3], "/")
			}
		}
	}
	return ""
}

// ImportPath returns the import path of the package in dir, given the module
// root directory and module path. ok is false when dir is outside moduleDir.
func ImportPath(moduleDir, module, dir string) (string, bool) {
	rel, err := filepath.Rel(moduleDir, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		return module, true
	}
	return module + "/" + filepath.ToSlash(rel), true
}
