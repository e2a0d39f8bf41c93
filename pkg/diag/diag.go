// Package diag collects the non-fatal warnings raised while a document is
// parsed. Every warning is logged as it is raised and kept for the output
// record.
package diag

import (
	"fmt"
	"log/slog"
	"sync"
)

// Code identifies the kind of a warning.
type Code string

const (
	CodeOrphanNode              Code = "orphan_node"
	CodeMalformedTOCEntry       Code = "malformed_toc_entry"
	CodeArticleNotFound         Code = "article_not_found"
	CodeArticleExhausted        Code = "article_exhausted"
	CodeExtractAll              Code = "extract_all"
	CodeUnmappedRegion          Code = "unmapped_region"
	CodeFootnoteUnlocated       Code = "footnote_unlocated"
	CodeFootnoteMarkerMismatch  Code = "footnote_marker_mismatch"
	CodeProvisionAmbiguous      Code = "provision_ambiguous"
	CodeProvisionIterationLimit Code = "provision_iteration_limit"
	CodeSectionMissing          Code = "section_missing"
)

// Warning is one recorded anomaly.
type Warning struct {
	Code    Code   `json:"code"`
	Article string `json:"article,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Article == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s: article %s: %s", w.Code, w.Article, w.Message)
}

// Collector records warnings for one document. It is safe for concurrent
// use. A nil Collector discards everything.
type Collector struct {
	mu       sync.Mutex
	logger   *slog.Logger
	warnings []Warning
}

// NewCollector returns a collector logging through logger, or through the
// default logger when logger is nil.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{logger: logger}
}

// Warn records a warning about an article. Pass an empty article for
// document level warnings.
func (c *Collector) Warn(code Code, article, format string, args ...any) {
	if c == nil {
		return
	}
	w := Warning{Code: code, Article: article, Message: fmt.Sprintf(format, args...)}

	c.mu.Lock()
	c.warnings = append(c.warnings, w)
	c.mu.Unlock()

	attrs := []any{"code", string(code)}
	if article != "" {
		attrs = append(attrs, "article", article)
	}
	c.logger.Warn(w.Message, attrs...)
}

// Warnings returns a copy of the recorded warnings in the order raised.
func (c *Collector) Warnings() []Warning {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Count returns the number of warnings with the given code.
func (c *Collector) Count(code Code) int {
	n := 0
	for _, w := range c.Warnings() {
		if w.Code == code {
			n++
		}
	}
	return n
}

// Len returns the number of recorded warnings.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.warnings)
}
