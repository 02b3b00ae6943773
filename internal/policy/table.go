package policy

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2/util"
	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
)

//go:embed routes.yaml
var defaultRoutes []byte

// matchCacheSize bounds the method+path lookup cache.
const matchCacheSize = 2048

// Table is an ordered list of descriptors. The first row whose method and
// pattern match a request wins; requests matching no row get DefaultDeny.
type Table struct {
	routes []Descriptor
	cache  *lru.Cache[string, int]
}

type tableFile struct {
	Routes []Descriptor `yaml:"routes"`
}

// NewTable validates routes and builds a table over them.
func NewTable(routes []Descriptor) (*Table, error) {
	for i, d := range routes {
		if err := validateDescriptor(d); err != nil {
			return nil, fmt.Errorf("route %d (%s): %w", i, d.Name, err)
		}
	}
	cache, err := lru.New[string, int](matchCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create match cache: %w", err)
	}
	return &Table{routes: append([]Descriptor(nil), routes...), cache: cache}, nil
}

func validateDescriptor(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.HasPrefix(d.Pattern, "/") {
		return fmt.Errorf("pattern %q must start with /", d.Pattern)
	}
	switch d.Audience {
	case AudiencePublic, AudienceAuthenticated, AudienceClient, AudienceNone:
		if d.MinimumRole != "" || d.FinanceSensitive {
			return fmt.Errorf("minimum_role and finance_sensitive apply to staff routes only")
		}
	case AudienceStaff:
		if d.MinimumRole != "" && !d.MinimumRole.IsStaff() {
			return fmt.Errorf("minimum_role %q is not a staff role", d.MinimumRole)
		}
	default:
		return fmt.Errorf("unknown audience %q", d.Audience)
	}
	return nil
}

// ParseTable decodes a YAML route table. Unknown keys are rejected.
func ParseTable(data []byte) (*Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f tableFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse route table: %w", err)
	}
	if len(f.Routes) == 0 {
		return nil, fmt.Errorf("route table has no routes")
	}
	for i := range f.Routes {
		f.Routes[i].Method = strings.ToUpper(strings.TrimSpace(f.Routes[i].Method))
		f.Routes[i].MinimumRole = auth.PrincipalType(strings.ToLower(string(f.Routes[i].MinimumRole)))
	}
	return NewTable(f.Routes)
}

// DefaultTable returns the route table compiled into the binary.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultRoutes)
}

// LoadTable reads the table at path, or the compiled-in table when path is empty.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}
	return ParseTable(data)
}

// Match returns the descriptor for a request. ok is false when DefaultDeny
// was returned.
func (t *Table) Match(method, path string) (d Descriptor, ok bool) {
	key := method + " " + path
	idx, hit := t.cache.Get(key)
	if !hit {
		idx = t.find(method, path)
		t.cache.Add(key, idx)
	}
	if idx < 0 {
		return DefaultDeny, false
	}
	return t.routes[idx], true
}

func (t *Table) find(method, path string) int {
	for i, d := range t.routes {
		if d.Method != "" && d.Method != "*" && d.Method != method {
			continue
		}
		if util.KeyMatch2(path, d.Pattern) {
			return i
		}
	}
	return -1
}

// Routes returns a copy of the table rows in match order.
func (t *Table) Routes() []Descriptor {
	return append([]Descriptor(nil), t.routes...)
}
