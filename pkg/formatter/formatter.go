package formatter

import (
	stderrors "errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"sort"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/errors"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/std"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/utils"
)

// errCgo marks files importing "C"; their preamble is bound to the import
// position so the block is never rewritten.
var errCgo = stderrors.New("file imports \"C\"")

type FormatterConfig struct {
	Orgs           []string // organization prefixes to group imports by
	CurrentProject string   // optional current project override
}

// formatter handles the import grouping logic
type formatter struct {
	config FormatterConfig
}

func newFormatter(config FormatterConfig) *formatter {
	return &formatter{
		config: config,
	}
}

func (g *formatter) getOrgs() []string {
	return g.config.Orgs
}

func (g *formatter) getCurrentProject(filePath string) string {
	if g.config.CurrentProject == "" {
		// If no current project is specified, try to infer it from the file path
		return utils.GetProjectModule(filePath)
	}
	return g.config.CurrentProject
}

// importClause is the parsed import section of one file
type importClause struct {
	fset   *token.FileSet
	file   *ast.File
	decls  []*ast.GenDecl
	src    []byte
	start  int // byte offset where the import declarations begin
	end    int // byte offset just past the last import declaration
	parens bool

	// comment lines inside the declarations that follow every import; they
	// are rendered just before the closing paren
	trailing []string
}

// parse reads only the package clause and imports, so files whose bodies do
// not compile yet are still handled.
func (g *formatter) parse(path string, src []byte) (*importClause, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ImportsOnly|parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToParseFile, err)
	}

	c := &importClause{fset: fset, file: file, src: src}
	for _, decl := range file.Decls {
		if genDecl, ok := decl.(*ast.GenDecl); ok && genDecl.Tok == token.IMPORT {
			c.decls = append(c.decls, genDecl)
			if genDecl.Lparen.IsValid() {
				c.parens = true
			}
		}
	}
	for _, spec := range file.Imports {
		if importPath(spec) == "C" {
			return nil, errCgo
		}
	}

	if len(c.decls) == 0 {
		c.start = packageLineEnd(fset, file, src)
		c.end = c.start
		return c, nil
	}

	first, last := c.decls[0], c.decls[len(c.decls)-1]
	c.start = c.offset(first.Pos())
	c.end = c.offset(last.End())
	if !last.Lparen.IsValid() && len(last.Specs) > 0 {
		// the trailing comment of an unparenthesized import lies past End()
		if spec := last.Specs[0].(*ast.ImportSpec); spec.Comment != nil {
			c.end = max(c.end, c.offset(spec.Comment.End()))
		}
	}
	return c, nil
}

func (c *importClause) offset(pos token.Pos) int {
	return c.fset.Position(pos).Offset
}

// packageLineEnd returns the offset of the newline ending the package clause
func packageLineEnd(fset *token.FileSet, file *ast.File, src []byte) int {
	off := fset.Position(file.Name.End()).Offset
	i := strings.IndexByte(string(src[off:]), '\n')
	if i < 0 {
		return len(src)
	}
	if i > 0 && src[off+i-1] == '\r' {
		i--
	}
	return off + i
}

// newline returns the line ending used by src
func newline(src []byte) string {
	if i := strings.IndexByte(string(src), '\n'); i > 0 && src[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// looseComments returns the comment groups inside the import declarations
// that belong to no import spec, in source order. Doc comments of every
// declaration but the first are among them.
func (c *importClause) looseComments() []*ast.CommentGroup {
	attached := make(map[*ast.CommentGroup]bool)
	for _, spec := range c.file.Imports {
		attached[spec.Doc] = true
		attached[spec.Comment] = true
	}
	var loose []*ast.CommentGroup
	for _, group := range c.file.Comments {
		off := c.offset(group.Pos())
		if off >= c.start && off < c.end && !attached[group] {
			loose = append(loose, group)
		}
	}
	return loose
}

// extractImports extracts import information from the AST. Comments that
// belong to no spec become doc lines of the import after them, or end up in
// c.trailing when no import follows.
func (g *formatter) extractImports(c *importClause) []Import {
	var imports []Import
	seen := make(map[string]bool) // Track which name/path pairs we've seen

	loose := c.looseComments()
	var pending []string
	for _, decl := range c.decls {
		for _, s := range decl.Specs {
			importSpec := s.(*ast.ImportSpec)
			for len(loose) > 0 && loose[0].Pos() < importSpec.Pos() {
				pending = append(pending, commentLines(loose[0])...)
				loose = loose[1:]
			}
			pending = append(pending, commentLines(importSpec.Doc)...)

			imp := Import{
				Path: importPath(importSpec),
			}
			if importSpec.Name != nil {
				imp.Name = importSpec.Name.Name
			}

			key := imp.Name + " " + imp.Path
			if seen[key] {
				// a dropped duplicate hands its comments to the next import
				pending = append(pending, commentLines(importSpec.Comment)...)
				continue
			}
			seen[key] = true

			imp.Doc, pending = pending, nil
			if importSpec.Comment != nil {
				imp.Comment = strings.Join(commentLines(importSpec.Comment), " ")
			}

			imports = append(imports, imp)
		}
	}
	for _, group := range loose {
		pending = append(pending, commentLines(group)...)
	}
	c.trailing = pending

	return imports
}

func importPath(spec *ast.ImportSpec) string {
	return strings.Trim(spec.Path.Value, "`\"")
}

func commentLines(group *ast.CommentGroup) []string {
	if group == nil {
		return nil
	}
	lines := make([]string, 0, len(group.List))
	for _, c := range group.List {
		lines = append(lines, c.Text)
	}
	return lines
}

// groupImports categorizes imports into different groups
func (g *formatter) groupImports(imports []Import, filePath string) map[ImportGroup][]Import {
	grouped := make(map[ImportGroup][]Import)
	projectModule := g.getCurrentProject(filePath)
	for i := range imports {
		imports[i].Group = g.classifyImport(imports[i].Path, projectModule)

		if imports[i].Group >= OrgGroupBase {
			imports[i].OrgIndex, imports[i].ProjectName = g.getOrgInfo(imports[i].Path)
		}

		grouped[imports[i].Group] = append(grouped[imports[i].Group], imports[i])
	}
	// Sort imports within each group
	for group := range grouped {
		g.sortImportsInGroup(grouped[group], group)
	}

	return grouped
}

// classifyImport determines which group an import belongs to
func (g *formatter) classifyImport(importPath, projectModule string) ImportGroup {
	// Check if it's a standard library import
	if std.IsStandardPackage(importPath) {
		return StdGroup
	}

	// Check if it's a project import
	if projectModule != "" && (importPath == projectModule || strings.HasPrefix(importPath, projectModule+"/")) {
		return ProjectGroup
	}

	// Check if it's an organization import - assign separate group per org
	for i, org := range g.getOrgs() {
		if strings.HasPrefix(importPath, org) {
			return ImportGroup(OrgGroupBase + i)
		}
	}

	return ThirdPartyGroup
}

// getOrgInfo returns the organization index and project name for an org import
func (g *formatter) getOrgInfo(importPath string) (int, string) {
	for i, org := range g.getOrgs() {
		if strings.HasPrefix(importPath, org) {
			// Extract project name (next path segment after org)
			remaining := strings.TrimPrefix(importPath, org)
			remaining = strings.TrimPrefix(remaining, "/")
			return i, strings.Split(remaining, "/")[0]
		}
	}
	return -1, ""
}

// sortImportsInGroup sorts imports within a group the way gofmt orders a
// run of specs: by path, then by name.
func (g *formatter) sortImportsInGroup(imports []Import, group ImportGroup) {
	sort.SliceStable(imports, func(i, j int) bool {
		if group >= OrgGroupBase && imports[i].ProjectName != imports[j].ProjectName {
			return imports[i].ProjectName < imports[j].ProjectName
		}
		if imports[i].Path != imports[j].Path {
			return imports[i].Path < imports[j].Path
		}
		return imports[i].Name < imports[j].Name
	})
}

// orderImports flattens the groups: std, third-party, orgs in configured
// order, then the current project.
func (g *formatter) orderImports(grouped map[ImportGroup][]Import) []Import {
	ordered := append([]Import(nil), grouped[StdGroup]...)
	ordered = append(ordered, grouped[ThirdPartyGroup]...)
	for i := range g.getOrgs() {
		ordered = append(ordered, grouped[ImportGroup(OrgGroupBase+i)]...)
	}
	return append(ordered, grouped[ProjectGroup]...)
}

// renderImports renders the import declaration for ordered imports, with a
// blank line between groups and between org projects. The text has no
// trailing newline. Trailing comment lines go just before the closing paren.
func (g *formatter) renderImports(ordered []Import, parens bool, trailing []string) string {
	if len(ordered) == 1 && !parens && len(ordered[0].Doc) == 0 && len(trailing) == 0 {
		return "import " + g.formatImportSpec(ordered[0])
	}

	lines := []string{"import ("}
	for i, imp := range ordered {
		if i > 0 && g.shouldAddSpacingBetweenImports(ordered[i-1], imp) {
			lines = append(lines, "")
		}
		for _, doc := range imp.Doc {
			lines = append(lines, "\t"+doc)
		}
		lines = append(lines, "\t"+g.formatImportSpec(imp))
	}
	for _, comment := range trailing {
		lines = append(lines, "\t"+comment)
	}
	lines = append(lines, ")")
	block := strings.Join(lines, "\n")

	// let gofmt align trailing comments exactly as it would in place
	const header = "package p\n\n"
	formatted, err := format.Source([]byte(header + block + "\n"))
	if err != nil {
		return block
	}
	return strings.TrimSuffix(strings.TrimPrefix(string(formatted), header), "\n")
}

// formatImportSpec formats a single import spec
func (g *formatter) formatImportSpec(imp Import) string {
	var parts []string

	if imp.Name != "" {
		parts = append(parts, imp.Name)
	}

	parts = append(parts, fmt.Sprintf("%q", imp.Path))

	if imp.Comment != "" {
		parts = append(parts, imp.Comment)
	}

	return strings.Join(parts, " ")
}

// shouldAddSpacingBetweenImports determines if spacing should be added between imports
func (g *formatter) shouldAddSpacingBetweenImports(prev, current Import) bool {
	// Different groups need spacing
	if current.Group != prev.Group {
		return true
	}

	// Same group - check for organization project differences
	if current.Group >= OrgGroupBase {
		if current.ProjectName != prev.ProjectName && prev.ProjectName != "" && current.ProjectName != "" {
			return true
		}
	}

	return false
}

// canonical returns c.src with its import declarations replaced by the
// grouped block for imports. Everything outside the declarations is kept
// byte for byte, and the block uses the line ending of c.src.
func (g *formatter) canonical(c *importClause, path string, imports []Import) []byte {
	if len(imports) == 0 {
		return c.src
	}

	grouped := g.groupImports(imports, path)
	block := g.renderImports(g.orderImports(grouped), c.parens || len(c.decls) > 1, c.trailing)
	nl := newline(c.src)
	if nl != "\n" {
		block = strings.ReplaceAll(block, "\n", nl)
	}

	var out strings.Builder
	out.Grow(len(c.src) + len(block) + 2*len(nl))
	out.Write(c.src[:c.start])
	if len(c.decls) == 0 {
		out.WriteString(nl + nl)
	}
	out.WriteString(block)
	if len(c.decls) == 0 && c.start == len(c.src) {
		out.WriteString(nl)
	}
	out.Write(c.src[c.end:])
	return []byte(out.String())
}

// Format returns src with its imports grouped and sorted. Files without
// imports are returned unchanged.
func (g *formatter) Format(path string, src []byte) ([]byte, error) {
	c, err := g.parse(path, src)
	if err != nil {
		return nil, err
	}
	return g.canonical(c, path, g.extractImports(c)), nil
}

// addImport adds the import `name path` to src. ok is false when an
// identical import is already present.
func (g *formatter) addImport(filePath string, src []byte, name, path string) ([]byte, bool, error) {
	c, err := g.parse(filePath, src)
	if err != nil {
		return nil, false, err
	}
	imports := g.extractImports(c)

	if !astutil.AddNamedImport(c.fset, c.file, name, path) {
		return src, false, nil
	}
	imports = append(imports, Import{Name: name, Path: path})
	return g.canonical(c, filePath, imports), true, nil
}
