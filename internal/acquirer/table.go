package acquirer

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nicolasmmb/go-card-gateway/internal/domain"
	"gopkg.in/yaml.v3"
)

// Route sends every BIN starting with Prefix to Acquirer.
type Route struct {
	Prefix   string            `yaml:"prefix"`
	Acquirer domain.AcquirerID `yaml:"acquirer"`
}

type routingFile struct {
	Routes []Route `yaml:"routes"`
}

// TableSelector matches the longest configured BIN prefix and defers to fallback when none matches.
type TableSelector struct {
	routes   []Route
	fallback Selector
}

func NewTableSelector(routes []Route, fallback Selector) (*TableSelector, error) {
	if fallback == nil {
		fallback = ParitySelector{}
	}

	sorted := make([]Route, 0, len(routes))
	for i, r := range routes {
		r.Prefix = strings.TrimSpace(r.Prefix)
		if r.Prefix == "" || len(r.Prefix) > 6 || strings.Trim(r.Prefix, "0123456789") != "" {
			return nil, fmt.Errorf("route %d: prefix %q must be 1 to 6 digits", i, r.Prefix)
		}
		if strings.TrimSpace(string(r.Acquirer)) == "" {
			return nil, fmt.Errorf("route %d: acquirer is required", i)
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})

	return &TableSelector{routes: sorted, fallback: fallback}, nil
}

// LoadTable reads a YAML routing table:
//
//	routes:
//	  - prefix: "4137"
//	    acquirer: "Acquirer C"
func LoadTable(path string, fallback Selector) (*TableSelector, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading routing table: %w", err)
	}

	var f routingFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decoding routing table %s: %w", path, err)
	}

	return NewTableSelector(f.Routes, fallback)
}

func (t *TableSelector) SelectAcquirer(bin string) domain.AcquirerID {
	for _, r := range t.routes {
		if strings.HasPrefix(bin, r.Prefix) {
			return r.Acquirer
		}
	}
	return t.fallback.SelectAcquirer(bin)
}
