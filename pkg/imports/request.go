package imports

import (
	"fmt"
	"strings"
)

// Namespace narrows symbol resolution to one layer when a name is overloaded
type Namespace int

const (
	NamespaceValue Namespace = iota
	NamespaceType
	NamespaceKind
)

var namespaceNames = map[Namespace]string{
	NamespaceValue: "value",
	NamespaceType:  "type",
	NamespaceKind:  "kind",
}

func (n Namespace) String() string {
	if name, ok := namespaceNames[n]; ok {
		return name
	}
	return fmt.Sprintf("Namespace(%d)", int(n))
}

// ParseNamespace accepts the lowercase or capitalized layer name
func ParseNamespace(s string) (Namespace, error) {
	for ns, name := range namespaceNames {
		if strings.EqualFold(s, name) {
			return ns, nil
		}
	}
	return 0, fmt.Errorf("unknown namespace %q", s)
}

func (n Namespace) MarshalText() ([]byte, error) {
	if _, ok := namespaceNames[n]; !ok {
		return nil, fmt.Errorf("unknown namespace %d", int(n))
	}
	return []byte(n.String()), nil
}

func (n *Namespace) UnmarshalText(text []byte) error {
	ns, err := ParseNamespace(string(text))
	if err != nil {
		return err
	}
	*n = ns
	return nil
}

// Request is one user-initiated "add this symbol" action
type Request struct {
	Identifier string
	Module     *string    // nil lets the analysis service pick the module
	Qualifier  *string    // nil for an unqualified import
	Namespace  *Namespace // nil for no namespace filter
}

// Existing is one import already present in a file. An empty Qualifier is an
// unqualified import that exposes the module's symbols directly.
type Existing struct {
	Module    string
	Qualifier string
}

// Unqualified reports whether the import exposes symbols without a prefix
func (e Existing) Unqualified() bool {
	return e.Qualifier == ""
}

// Contains reports whether an import with the exact module/qualifier pair exists
func Contains(existing []Existing, module, qualifier string) bool {
	for _, e := range existing {
		if e.Module == module && e.Qualifier == qualifier {
			return true
		}
	}
	return false
}

// ContainsUnqualified reports whether module is already imported unqualified
func ContainsUnqualified(existing []Existing, module string) bool {
	for _, e := range existing {
		if e.Module == module && e.Unqualified() {
			return true
		}
	}
	return false
}

// String returns a pointer to s, for filling optional request fields
func String(s string) *string {
	return &s
}

// Deref returns the pointed-to string or "" for nil
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
