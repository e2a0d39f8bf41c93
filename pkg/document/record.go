package document

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/justel/pkg/diag"
	"github.com/coolbeans/justel/pkg/types"
)

// Record is the structured output for one document.
type Record struct {
	DocumentMetadata   Metadata           `json:"document_metadata"`
	Preamble           string             `json:"preamble"`
	AbrogationInfo     AbrogationInfo     `json:"abrogation_info"`
	DocumentHierarchy  types.Forest       `json:"document_hierarchy"`
	References         References         `json:"references"`
	ExternalLinks      ExternalLinks      `json:"external_links"`
	ExtractionMetadata ExtractionMetadata `json:"extraction_metadata"`
}

// ExtractionMetadata describes the run that produced a record.
type ExtractionMetadata struct {
	ExtractionID      string            `json:"extraction_id"`
	ExtractionDate    string            `json:"extraction_date"`
	SourceFile        string            `json:"source_file"`
	TreeSource        string            `json:"tree_source"`
	SectionsIncluded  []string          `json:"sections_included"`
	SectionsExcluded  []string          `json:"sections_excluded"`
	Statistics        Statistics        `json:"statistics"`
	CompletenessFlags CompletenessFlags `json:"completeness_flags"`
	Warnings          []diag.Warning    `json:"warnings"`
}

// Statistics counts what was extracted and what reached the tree.
type Statistics struct {
	ArticlesExtracted int `json:"articles_extracted"`
	types.TreeStatistics
}

// CompletenessFlags summarize how much of the document was recovered.
type CompletenessFlags struct {
	AllArticlesExtracted          bool `json:"all_articles_extracted"`
	FootnotesLinked               bool `json:"footnotes_linked"`
	HierarchicalStructureComplete bool `json:"hierarchical_structure_complete"`
	MetadataComplete              bool `json:"metadata_complete"`
	IsMinimalDocument             bool `json:"is_minimal_document"`
	PreambleExtracted             bool `json:"preamble_extracted"`
	IsAbrogatedDocument           bool `json:"is_abrogated_document"`
}

var (
	sectionsIncluded = []string{"document_metadata", "preamble", "abrogation_info", "document_hierarchy", "references", "external_links"}
	sectionsExcluded = []string{"articles", "legal_references", "modification_history"}
)

func newExtractionMetadata(sourceFile string, source string, now time.Time) ExtractionMetadata {
	return ExtractionMetadata{
		ExtractionID:     uuid.New().String(),
		ExtractionDate:   now.Format(time.RFC3339),
		SourceFile:       sourceFile,
		TreeSource:       source,
		SectionsIncluded: append([]string(nil), sectionsIncluded...),
		SectionsExcluded: append([]string(nil), sectionsExcluded...),
		Warnings:         make([]diag.Warning, 0),
	}
}

// Validate checks that the record carries the fields every consumer
// relies on and that the hierarchy respects the rank order.
func (r *Record) Validate() error {
	var errs []error

	meta := r.DocumentMetadata
	if meta.Language == "" {
		errs = append(errs, errors.New("document_metadata.language is empty"))
	}
	if meta.DocumentType == "" {
		errs = append(errs, errors.New("document_metadata.document_type is empty"))
	}
	if meta.Status != StatusActive && meta.Status != StatusAbrogated {
		errs = append(errs, fmt.Errorf("document_metadata.status %q is not %s or %s", meta.Status, StatusActive, StatusAbrogated))
	}

	if r.DocumentHierarchy == nil {
		errs = append(errs, errors.New("document_hierarchy is missing"))
	} else if node := r.DocumentHierarchy.CheckRanks(); node != nil {
		errs = append(errs, fmt.Errorf("document_hierarchy: node %q breaks the rank order", node.Label))
	}
	if r.References.Modifies == nil || r.References.ModifiedBy == nil {
		errs = append(errs, errors.New("references lists are missing"))
	}

	extraction := r.ExtractionMetadata
	if extraction.ExtractionID == "" {
		errs = append(errs, errors.New("extraction_metadata.extraction_id is empty"))
	}
	if _, err := time.Parse(time.RFC3339, extraction.ExtractionDate); err != nil {
		errs = append(errs, fmt.Errorf("extraction_metadata.extraction_date: %w", err))
	}
	if extraction.SourceFile == "" {
		errs = append(errs, errors.New("extraction_metadata.source_file is empty"))
	}
	if extraction.Statistics.Articles > extraction.Statistics.ArticlesExtracted {
		errs = append(errs, fmt.Errorf("tree holds %d articles but only %d were extracted",
			extraction.Statistics.Articles, extraction.Statistics.ArticlesExtracted))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid record: %w", errors.Join(errs...))
	}
	return nil
}
