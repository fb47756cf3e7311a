// Package snapshot persists finished runs: the rates.json contract, the
// Markdown report and any optional downstream stores.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
	"github.com/ikaadil/any-currency-to-bdt/internal/logger"
	"github.com/ikaadil/any-currency-to-bdt/internal/report"
)

// Sink stores a finished snapshot somewhere.
type Sink interface {
	Name() string
	Save(ctx context.Context, snap *domain.Snapshot) error
}

var writeFile = os.WriteFile

// FileWriter writes the JSON data file and the Markdown report.
type FileWriter struct {
	dir       string
	jsonFile  string
	report    string
	providers []string
}

func NewFileWriter(dir, jsonFile, reportFile string, providers []string) *FileWriter {
	return &FileWriter{dir: dir, jsonFile: jsonFile, report: reportFile, providers: providers}
}

func (w *FileWriter) Name() string { return "file" }

func (w *FileWriter) Save(_ context.Context, snap *domain.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(w.dir, w.jsonFile), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", w.jsonFile, err)
	}

	md := report.Build(snap, report.Options{Providers: w.providers, DataFile: w.jsonFile})
	if err := writeFile(filepath.Join(w.dir, w.report), []byte(md), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", w.report, err)
	}
	return nil
}

// Encode renders snap in the rates.json layout: four-space indent, UTF-8
// kept as-is.
func Encode(snap *domain.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Fanout saves to the primary sink first and fails if it fails. The rest are
// best-effort: their errors are logged and otherwise ignored.
type Fanout struct {
	tracer   trace.Tracer
	primary  Sink
	optional []Sink
}

func NewFanout(tracer trace.Tracer, primary Sink, optional ...Sink) *Fanout {
	return &Fanout{tracer: tracer, primary: primary, optional: optional}
}

func (f *Fanout) Save(ctx context.Context, snap *domain.Snapshot) error {
	if err := f.save(ctx, f.primary, snap); err != nil {
		return err
	}
	for _, s := range f.optional {
		if s == nil {
			continue
		}
		if err := f.save(ctx, s, snap); err != nil {
			logger.Log.Warnw("optional sink failed", "sink", s.Name(), "error", err)
		}
	}
	return nil
}

func (f *Fanout) save(ctx context.Context, s Sink, snap *domain.Snapshot) error {
	ctx, span := f.tracer.Start(ctx, "snapshot."+s.Name())
	defer span.End()

	if err := s.Save(ctx, snap); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%s sink: %w", s.Name(), err)
	}
	return nil
}
