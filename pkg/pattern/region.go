package pattern

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Canonical region names.
const (
	RegionWallonne  = "WALLONNE"
	RegionFlamande  = "FLAMANDE"
	RegionBruxelles = "BRUXELLES"
)

// RegionTable maps the many spellings of a region qualifier to one
// canonical name.
type RegionTable struct {
	canonical map[string]string
	names     []string
}

// NewRegionTable indexes every alias, plus each canonical name itself.
func NewRegionTable(regions []RegionAlias) *RegionTable {
	table := &RegionTable{canonical: make(map[string]string)}
	for _, region := range regions {
		name := strings.ToUpper(strings.TrimSpace(region.Canonical))
		if name == "" {
			continue
		}
		table.names = append(table.names, name)
		table.canonical[regionKey(name)] = name
		for _, alias := range region.Aliases {
			table.canonical[regionKey(alias)] = name
		}
	}
	return table
}

// Canonical returns the canonical name for a spelling such as "wallonne",
// "Wallone" or "de Bruxelles-Capitale".
func (t *RegionTable) Canonical(spelling string) (string, bool) {
	name, ok := t.canonical[regionKey(spelling)]
	return name, ok
}

// Names lists the canonical names in vocabulary order.
func (t *RegionTable) Names() []string {
	names := make([]string, len(t.names))
	copy(names, t.names)
	return names
}

// regionKey folds case, accents and separators so that lookups ignore
// cosmetic differences.
func regionKey(spelling string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(spelling)))
	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case r >= 0x300 && r <= 0x36f:
			continue
		case r == '-' || r == '_':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
