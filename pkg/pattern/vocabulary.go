package pattern

import (
	"fmt"
	"sort"
	"strings"
)

// Vocabulary is the loadable part of the pattern set: region spellings and
// document type names. It is read from YAML files so that new spellings can
// be added without a rebuild.
type Vocabulary struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`

	// Regions lists canonical regions with their accepted spellings
	Regions []RegionAlias `yaml:"regions" json:"regions"`

	// DocumentTypes maps ELI path segments to document types
	DocumentTypes map[string]string `yaml:"document_types" json:"document_types"`
}

// RegionAlias is one canonical region and its spellings.
type RegionAlias struct {
	Canonical string   `yaml:"canonical" json:"canonical"`
	Aliases   []string `yaml:"aliases" json:"aliases"`
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Name:    "justel-default",
		Version: "1.0.0",
		Regions: []RegionAlias{
			{
				Canonical: RegionWallonne,
				Aliases:   []string{"wallonne", "wallone", "wallon", "Région wallonne", "REGION WALLONNE"},
			},
			{
				Canonical: RegionBruxelles,
				Aliases: []string{
					"bruxelles", "bruxelles-capitale", "de bruxelles-capitale",
					"de Bruxelles-Capitale", "bruxelloise", "BRUXELLES-CAPITALE",
				},
			},
			{
				Canonical: RegionFlamande,
				Aliases:   []string{"flamande", "flamand", "Région flamande", "REGION FLAMANDE"},
			},
		},
		DocumentTypes: map[string]string{
			"loi":          "LOI",
			"arrete":       "ARRETE",
			"decret":       "DECRET",
			"ordonnance":   "ORDONNANCE",
			"code":         "CODE",
			"constitution": "CONSTITUTION",
		},
	}
}

// Validate checks that the vocabulary is usable.
func (v *Vocabulary) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("vocabulary name is required")
	}
	for i, region := range v.Regions {
		if strings.TrimSpace(region.Canonical) == "" {
			return fmt.Errorf("region %d: canonical name is required", i)
		}
		for j, alias := range region.Aliases {
			if strings.TrimSpace(alias) == "" {
				return fmt.Errorf("region %s: alias %d is empty", region.Canonical, j)
			}
		}
	}
	for segment, docType := range v.DocumentTypes {
		if segment == "" || docType == "" {
			return fmt.Errorf("document type mapping %q -> %q is incomplete", segment, docType)
		}
	}
	return nil
}

// Merge layers the given vocabularies over v and returns the result. Region
// aliases accumulate per canonical name and later document type mappings
// win.
func (v *Vocabulary) Merge(others ...*Vocabulary) *Vocabulary {
	merged := &Vocabulary{
		Name:          v.Name,
		Version:       v.Version,
		DocumentTypes: make(map[string]string, len(v.DocumentTypes)),
	}

	index := make(map[string]int)
	addRegion := func(region RegionAlias) {
		name := strings.ToUpper(strings.TrimSpace(region.Canonical))
		if i, ok := index[name]; ok {
			merged.Regions[i].Aliases = append(merged.Regions[i].Aliases, region.Aliases...)
			return
		}
		index[name] = len(merged.Regions)
		merged.Regions = append(merged.Regions, RegionAlias{
			Canonical: name,
			Aliases:   append([]string(nil), region.Aliases...),
		})
	}

	for _, vocabulary := range append([]*Vocabulary{v}, others...) {
		if vocabulary == nil {
			continue
		}
		for _, region := range vocabulary.Regions {
			addRegion(region)
		}
		for segment, docType := range vocabulary.DocumentTypes {
			merged.DocumentTypes[strings.ToLower(segment)] = docType
		}
	}
	return merged
}

// sortedVocabularies orders vocabularies by name so that merging is
// deterministic.
func sortedVocabularies(vocabularies map[string]*Vocabulary) []*Vocabulary {
	sorted := make([]*Vocabulary, 0, len(vocabularies))
	for _, v := range vocabularies {
		sorted = append(sorted, v)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}
