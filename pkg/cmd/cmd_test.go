package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its output. Flag
// variables persist between runs, so they are reset first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, orgs, currentProject, logLevel, showVersion = "", nil, "", "", false
	inPlace = false
	addModule, addQualifier, addNamespace, addInPlace = "", "", "", false
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		for _, name := range []string{"config", "orgs", "current-project", "log-level", "module", "qualifier", "namespace", "in-place"} {
			if f := c.Flags().Lookup(name); f != nil {
				f.Changed = false
			}
		}
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeModule lays out files under a fresh module root
func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files["go.mod"] = "module example.com/demo\n\ngo 1.24\n"
	files[".gil.yaml"] = "logLevel: error\n"
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

const unorganized = `package main

import "os"
import "fmt"

func main() { fmt.Println(os.Args) }
`

const organized = `package main

import (
	"fmt"
	"os"
)

func main() { fmt.Println(os.Args) }
`

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "-v")
	require.NoError(t, err)
	require.Contains(t, out, "gil version")
}

func TestCheck(t *testing.T) {
	color.NoColor = true
	req := require.New(t)

	root := writeModule(t, map[string]string{
		"main.go":     unorganized,
		"lib/lib.go":  "package lib\n\nimport \"strings\"\n\nvar X = strings.ToUpper\n",
		"vendor/x.go": unorganized,
	})

	out, err := execute(t, "check", root)
	req.Error(err)
	req.Contains(err.Error(), "1 files need their imports organized")
	req.Contains(out, filepath.Join(root, "main.go")+":4: hint HintOrganiseImports Imports are not organised")
	req.NotContains(out, "lib.go")
	req.NotContains(out, "vendor")
}

func TestCheck_clean(t *testing.T) {
	root := writeModule(t, map[string]string{"main.go": organized})
	path := filepath.Join(root, "main.go")
	out, err := execute(t, "check", path)
	require.NoError(t, err)
	require.Equal(t, path+": imports are organized\n", out)
}

func TestOrganize_inPlace(t *testing.T) {
	req := require.New(t)
	root := writeModule(t, map[string]string{"main.go": unorganized})

	out, err := execute(t, "organize", "--in-place", root)
	req.NoError(err)
	req.Contains(out, "Processed 1 files successfully")

	got, err := os.ReadFile(filepath.Join(root, "main.go"))
	req.NoError(err)
	req.Equal(organized, string(got))
}

func TestOrganize_stdout(t *testing.T) {
	req := require.New(t)
	root := writeModule(t, map[string]string{"main.go": unorganized})
	path := filepath.Join(root, "main.go")

	out, err := execute(t, "organize", path)
	req.NoError(err)
	req.Equal(organized, out)

	got, err := os.ReadFile(path)
	req.NoError(err)
	req.Equal(unorganized, string(got), "file must not change without --in-place")
}

func TestAdd(t *testing.T) {
	const mainSource = "package main\n\nfunc main() { util.Helper() }\n"

	t.Run("indexed symbol is imported", func(t *testing.T) {
		req := require.New(t)
		root := writeModule(t, map[string]string{
			"main.go":      mainSource,
			"util/util.go": "package util\n\nfunc Helper() {}\n",
		})
		path := filepath.Join(root, "main.go")

		_, err := execute(t, "add", "Helper", path, "--in-place")
		req.NoError(err)

		got, err := os.ReadFile(path)
		req.NoError(err)
		req.Equal("package main\n\nimport \"example.com/demo/util\"\n\nfunc main() { util.Helper() }\n", string(got))
	})

	t.Run("edit is printed without in-place", func(t *testing.T) {
		req := require.New(t)
		root := writeModule(t, map[string]string{"main.go": mainSource})
		path := filepath.Join(root, "main.go")

		out, err := execute(t, "add", "Builder", path, "--module", "strings", "--qualifier", "sb")
		req.NoError(err)
		req.Contains(out, path+":3: insert")
		req.Contains(out, "import sb \"strings\"")
	})

	t.Run("several providers are listed", func(t *testing.T) {
		req := require.New(t)
		root := writeModule(t, map[string]string{
			"main.go":     mainSource,
			"a/a.go":      "package a\n\nfunc Helper() {}\n",
			"b/b.go":      "package b\n\ntype Helper struct{}\n",
			"c/c_test.go": "package c\n\nfunc Helper() {}\n",
		})
		path := filepath.Join(root, "main.go")

		out, err := execute(t, "add", "Helper", path)
		req.NoError(err)
		req.Contains(out, "Helper is exported by several modules:\n  example.com/demo/a\n  example.com/demo/b\n")

		out, err = execute(t, "add", "Helper", path, "--namespace", "type", "--in-place")
		req.NoError(err)
		got, err := os.ReadFile(path)
		req.NoError(err)
		req.Contains(string(got), "import \"example.com/demo/b\"")
		req.Contains(out, "Processed: ")
	})

	t.Run("unknown identifier", func(t *testing.T) {
		root := writeModule(t, map[string]string{"main.go": mainSource})
		out, err := execute(t, "add", "Missing", filepath.Join(root, "main.go"))
		require.NoError(t, err)
		require.Contains(t, out, "Nothing to import for Missing")
	})

	t.Run("bad namespace", func(t *testing.T) {
		root := writeModule(t, map[string]string{"main.go": mainSource})
		_, err := execute(t, "add", "Helper", filepath.Join(root, "main.go"), "--namespace", "module")
		require.Error(t, err)
	})
}
