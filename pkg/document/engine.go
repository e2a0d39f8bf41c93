// Package document assembles the structured record of a Belgian legal
// document: header metadata, preamble, repeal notice, the populated
// division tree and the modification references.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coolbeans/justel/pkg/diag"
	"github.com/coolbeans/justel/pkg/extract"
	"github.com/coolbeans/justel/pkg/hierarchy"
	"github.com/coolbeans/justel/pkg/pattern"
	"github.com/coolbeans/justel/pkg/populate"
	"github.com/coolbeans/justel/pkg/types"
)

// Fatal input errors. Every other problem is recorded as a warning.
var (
	ErrInvalidEncoding = errors.New("document is not valid UTF-8")
	ErrEmptyDocument   = errors.New("document is empty")
)

// MatcherSource supplies the matcher a document is parsed with. A
// pattern.Registry satisfies it and hands out its latest snapshot.
type MatcherSource interface {
	Matcher() *pattern.Matcher
}

type staticMatcher struct{ matcher *pattern.Matcher }

func (s staticMatcher) Matcher() *pattern.Matcher { return s.matcher }

// Options configure an Engine.
type Options struct {
	// TreeSource selects the region the division tree is built from.
	TreeSource hierarchy.Source
	Matchers   MatcherSource
	Logger     *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine turns converted documents into records. It holds no per-document
// state and is safe for concurrent use.
type Engine struct {
	source   hierarchy.Source
	matchers MatcherSource
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		source:   opts.TreeSource,
		matchers: opts.Matchers,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if e.source == "" {
		e.source = hierarchy.SourceAuto
	}
	if e.matchers == nil {
		e.matchers = staticMatcher{pattern.Default()}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Process parses one document.
func (e *Engine) Process(filename string, content []byte) (*Record, error) {
	return e.ProcessContext(context.Background(), filename, content)
}

// ProcessContext parses one document. ctx is checked between stages and
// between articles, so a deadline stops work on a slow document.
func (e *Engine) ProcessContext(ctx context.Context, filename string, content []byte) (*Record, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: %w", filename, ErrInvalidEncoding)
	}
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", filename, ErrEmptyDocument)
	}

	matcher := e.matchers.Matcher()
	logger := e.logger.With(slog.String("file", filepath.Base(filename)))
	warnings := diag.NewCollector(logger)
	meta := NewMetadataExtractor(matcher)

	record := &Record{
		DocumentMetadata:   meta.Extract(text, filepath.Base(filename)),
		Preamble:           Preamble(text),
		AbrogationInfo:     meta.AbrogationInfo(text),
		References:         meta.ExtractReferences(text),
		ExtractionMetadata: newExtractionMetadata(filepath.Base(filename), string(e.source), e.now()),
	}
	record.ExternalLinks = meta.ExternalLinks(text, meta.OfficialLinks(text))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	forest := hierarchy.NewBuilder(matcher, warnings).Build(text, e.source)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	records, err := extract.NewExtractor(matcher, warnings).ExtractContext(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	populator := populate.New(matcher, records, warnings)
	forest = populator.Populate(forest)
	forest = appendUnplaced(forest, populator.Unclaimed(), warnings)
	if forest == nil {
		forest = types.Forest{}
	}
	record.DocumentHierarchy = forest

	stats := forest.Statistics()
	record.ExtractionMetadata.Statistics = Statistics{ArticlesExtracted: len(records), TreeStatistics: stats}
	record.ExtractionMetadata.CompletenessFlags = CompletenessFlags{
		AllArticlesExtracted:          populator.Claimed() == len(records),
		FootnotesLinked:               warnings.Count(diag.CodeFootnoteUnlocated) == 0 && warnings.Count(diag.CodeFootnoteMarkerMismatch) == 0,
		HierarchicalStructureComplete: forest.CheckRanks() == nil && stats.UnclaimedLeaves == 0 && warnings.Count(diag.CodeOrphanNode) == 0,
		MetadataComplete:              record.DocumentMetadata.DocumentNumber != "" && record.DocumentMetadata.Title != "" && record.DocumentMetadata.DocumentType != UnknownType,
		IsMinimalDocument:             len(records) == 0,
		PreambleExtracted:             record.Preamble != "",
		IsAbrogatedDocument:           record.AbrogationInfo.IsFullyAbrogated,
	}
	record.ExtractionMetadata.Warnings = append(record.ExtractionMetadata.Warnings, warnings.Warnings()...)

	logger.Info("document processed",
		slog.Int("articles_extracted", len(records)),
		slog.Int("articles_in_tree", stats.Articles),
		slog.Int("footnotes", stats.Footnotes),
		slog.Int("warnings", warnings.Len()))
	return record, nil
}

// appendUnplaced adds the records no leaf claimed as root article leaves so
// that no article is lost from the output.
func appendUnplaced(forest types.Forest, unplaced []*types.ArticleRecord, warnings *diag.Collector) types.Forest {
	for _, record := range unplaced {
		warnings.Warn(diag.CodeOrphanNode, record.ArticleNumber,
			"article has no place in the division tree, attached at the root")
		leaf := types.NewArticleLeaf("Article "+record.ArticleNumber, record.ArticleNumber)
		leaf.Article = record
		forest = append(forest, leaf)
	}
	return forest
}
