// Package batch parses many converted documents concurrently. Every
// document runs under its own deadline and a failed document is recorded
// and skipped over; the run always continues with the next one.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/justel/pkg/document"
)

// Processor parses one document. document.Engine satisfies it.
type Processor interface {
	ProcessContext(ctx context.Context, filename string, content []byte) (*document.Record, error)
}

// Job is one document to parse.
type Job struct {
	Path string
}

// Options configure a Runner.
type Options struct {
	Workers         int
	DocumentTimeout time.Duration
	// OutputDir receives one <name>.json per parsed document. Nothing is
	// written when it is empty.
	OutputDir string
	Pretty    bool
	Logger    *slog.Logger
}

// Runner drives a Processor over a set of jobs.
type Runner struct {
	processor Processor
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// NewRunner creates a runner. Workers defaults to 1 and DocumentTimeout to
// 30 seconds.
func NewRunner(processor Processor, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.DocumentTimeout <= 0 {
		opts.DocumentTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{processor: processor, opts: opts, logger: logger, now: time.Now}
}

// Discover lists the files of dir matching glob, sorted by name.
func Discover(dir, glob string) ([]Job, error) {
	if glob == "" {
		glob = "*"
	}
	if _, err := filepath.Match(glob, ""); err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", glob, err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(paths)

	jobs := make([]Job, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		jobs = append(jobs, Job{Path: path})
	}
	return jobs, nil
}

// Run parses every job. Once ctx is cancelled no new document is started
// and the remaining jobs are reported as skipped. Entries keep job order.
func (r *Runner) Run(ctx context.Context, jobs []Job) *Report {
	report := &Report{
		RunID:     uuid.New().String(),
		StartedAt: r.now(),
		Entries:   make([]Entry, len(jobs)),
	}
	if r.opts.OutputDir != "" {
		if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
			r.logger.Error("cannot create output directory", "dir", r.opts.OutputDir, "error", err)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(r.opts.Workers)
	for i, job := range jobs {
		if ctx.Err() != nil {
			report.Entries[i] = Entry{Source: job.Path, Status: StatusSkipped, Error: ctx.Err().Error()}
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				report.Entries[i] = Entry{Source: job.Path, Status: StatusSkipped, Error: ctx.Err().Error()}
				return nil
			}
			report.Entries[i] = r.Process(ctx, job.Path)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = r.now()
	report.tally()
	r.logger.Info("batch finished",
		slog.String("run_id", report.RunID),
		slog.Int("attempted", report.TotalAttempted),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped))
	return report
}

type outcome struct {
	record *document.Record
	err    error
}

// Process parses a single file under the document deadline and writes its
// record. A failed document leaves no output behind.
func (r *Runner) Process(ctx context.Context, path string) Entry {
	start := r.now()
	entry := Entry{Source: path}
	logger := r.logger.With(slog.String("file", filepath.Base(path)))

	fail := func(err error) Entry {
		entry.Status = StatusFailed
		entry.Error = err.Error()
		entry.Duration = r.now().Sub(start)
		logger.Warn("document failed", "error", err)
		return entry
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fail(fmt.Errorf("reading %s: %w", path, err))
	}
	entry.SourceHash = HashBytes(content)

	docCtx, cancel := context.WithTimeout(ctx, r.opts.DocumentTimeout)
	defer cancel()

	// On a deadline the processor goroutine runs on until its next ctx
	// check; the engine checks between stages and between articles. The
	// buffered channel lets it finish without a reader.
	done := make(chan outcome, 1)
	go func() {
		record, err := r.processor.ProcessContext(docCtx, path, content)
		done <- outcome{record: record, err: err}
	}()

	var result outcome
	select {
	case result = <-done:
	case <-docCtx.Done():
		return fail(fmt.Errorf("%s: %w", path, docCtx.Err()))
	}
	if result.err != nil {
		return fail(result.err)
	}

	entry.Articles = result.record.ExtractionMetadata.Statistics.Articles
	entry.Warnings = len(result.record.ExtractionMetadata.Warnings)
	if r.opts.OutputDir != "" {
		output := OutputPath(r.opts.OutputDir, path)
		if err := WriteRecord(output, result.record, r.opts.Pretty); err != nil {
			return fail(err)
		}
		entry.Output = output
	}

	entry.Status = StatusSucceeded
	entry.Duration = r.now().Sub(start)
	logger.Debug("document written", "output", entry.Output, "duration", entry.Duration)
	return entry
}

// OutputPath returns <dir>/<source name without extension>.json.
func OutputPath(dir, source string) string {
	name := filepath.Base(source)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(dir, name+".json")
}

// WriteRecord writes a record as JSON. The file is written next to its
// destination and renamed into place, so readers never see half a record.
func WriteRecord(path string, record *document.Record, pretty bool) error {
	if record == nil {
		return errors.New("nil record")
	}
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(record, "", "  ")
	} else {
		data, err = json.Marshal(record)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".justel-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving %s into place: %w", path, err)
	}
	return nil
}
