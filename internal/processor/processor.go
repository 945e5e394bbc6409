// Package processor moves finished downloads to the media share: it detects
// language and type, prunes unwanted tracks, builds the destination path and
// transfers the file, recording every step in history.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/vmunix/mediaroute/internal/detect"
	"github.com/vmunix/mediaroute/internal/events"
	"github.com/vmunix/mediaroute/internal/history"
	"github.com/vmunix/mediaroute/internal/naming"
	"github.com/vmunix/mediaroute/internal/probe"
	"github.com/vmunix/mediaroute/internal/remux"
	"github.com/vmunix/mediaroute/internal/unify"
)

// Config for the processor.
type Config struct {
	DryRun          bool
	RemoveOriginals bool
	StabilityWindow time.Duration
	Routes          Routes
	Extraction      ExtractionConfig
}

// ExtractionConfig controls track pruning.
type ExtractionConfig struct {
	Enabled           bool
	Languages         []detect.Language // buckets whose files are remuxed
	PreferredSubtitle string
	TargetCodes       map[detect.Language]string
}

func (e ExtractionConfig) applies(attrs detect.Attributes) bool {
	if !e.Enabled {
		return false
	}
	return attrs.NeedsExtraction || slices.Contains(e.Languages, attrs.Language)
}

// Deps are the collaborators a Processor needs. Prober, Remuxer, Unifier
// and Notifier are optional.
type Deps struct {
	History    *history.Store
	Detector   *detect.Detector
	Builder    *naming.Builder
	Transferer Transferer
	Prober     Prober
	Remuxer    Remuxer
	Unifier    *unify.Unifier
	Notifier   Notifier
}

// Processor handles one file at a time.
type Processor struct {
	cfg        Config
	history    *history.Store
	detector   *detect.Detector
	builder    *naming.Builder
	transferer Transferer
	prober     Prober
	remuxer    Remuxer
	unifier    *unify.Unifier
	notifier   Notifier
	log        *slog.Logger
}

// New creates a processor.
func New(cfg Config, deps Deps, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Detector == nil {
		deps.Detector = detect.New()
	}
	if deps.Builder == nil {
		deps.Builder = naming.NewBuilder("", "")
	}
	return &Processor{
		cfg:        cfg,
		history:    deps.History,
		detector:   deps.Detector,
		builder:    deps.Builder,
		transferer: deps.Transferer,
		prober:     deps.Prober,
		remuxer:    deps.Remuxer,
		unifier:    deps.Unifier,
		notifier:   deps.Notifier,
		log:        logger.With("component", "processor"),
	}
}

// Result is the outcome of processing one file.
type Result struct {
	File      *history.MediaFile
	Extracted bool
}

// job carries one file through the pipeline.
type job struct {
	rec   *history.MediaFile
	file  string // what gets transferred; the remux output when extracted
	temp  string // remux output to delete afterwards
	meta  *probe.Result
	attrs detect.Attributes
	base  string
}

// ProcessFile processes a single download. The returned error is non-nil
// whenever the file did not reach success or dry-run; Result is still
// returned once a history record exists.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Result, error) {
	return p.process(ctx, path, "")
}

func (p *Processor) process(ctx context.Context, path, sessionID string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotMedia, path)
	}

	size, err := WaitStable(ctx, path, p.cfg.StabilityWindow)
	if err != nil {
		return nil, err
	}

	j := &job{
		file: path,
		rec: &history.MediaFile{
			OriginalFilename: filepath.Base(path),
			SourcePath:       path,
			SizeBytes:        size,
			Type:             detect.TypeUnknown,
			Language:         detect.LangUnknown,
			SessionID:        sessionID,
		},
	}
	if err := p.history.Add(j.rec); err != nil {
		return nil, fmt.Errorf("record %s: %w", path, err)
	}
	if err := p.history.Transition(j.rec, history.StatusProcessing, ""); err != nil {
		return nil, fmt.Errorf("record %s: %w", path, err)
	}
	defer p.removeTemp(j)

	log := p.log.With("path", path, "file_id", j.rec.ID)
	log.Info("processing started", "size", size)

	res := &Result{File: j.rec}
	if err := p.run(ctx, j, log); err != nil {
		p.fail(ctx, j, err, log)
		return res, err
	}
	res.Extracted = j.rec.ExtractionApplied
	return res, nil
}

func (p *Processor) run(ctx context.Context, j *job, log *slog.Logger) error {
	p.detect(ctx, j, log)

	base, err := p.cfg.Routes.Base(j.attrs.Type, j.attrs.Language)
	if err != nil {
		return err
	}
	j.base = base

	p.extract(ctx, j, log)

	target, err := p.target(ctx, j, log)
	if err != nil {
		return err
	}
	j.rec.DestinationPath = target.Path
	j.rec.Orphan = target.Orphan
	if target.Kind == naming.KindEpisode || target.Kind == naming.KindGuess {
		j.rec.SeriesName = target.Series
		j.rec.Season = target.Season
	}
	if err := p.history.Update(j.rec); err != nil {
		return fmt.Errorf("update history: %w", err)
	}

	p.publish(ctx, j, events.EventTransferStarted, "")

	if p.cfg.DryRun {
		log.Info("dry run, not transferring", "destination", target.Path)
		if err := p.history.Transition(j.rec, history.StatusDryRun, ""); err != nil {
			return fmt.Errorf("record dry run: %w", err)
		}
		p.publish(ctx, j, events.EventDryRun, "")
		return nil
	}

	start := time.Now()
	if err := p.transferer.Transfer(ctx, j.file, target.Path); err != nil {
		return fmt.Errorf("transfer to %s: %w", target.Path, err)
	}
	if err := p.history.Transition(j.rec, history.StatusSuccess, ""); err != nil {
		return fmt.Errorf("record success: %w", err)
	}
	p.publish(ctx, j, events.EventTransferSucceeded, "")
	log.Info("transfer complete", "destination", target.Path, "duration", time.Since(start))

	if p.cfg.RemoveOriginals {
		p.removeOriginal(j.rec.SourcePath, log)
	}
	return nil
}

// detect fills the job's attributes. Probe failures fall back to
// filename-only detection.
func (p *Processor) detect(ctx context.Context, j *job, log *slog.Logger) {
	if p.prober != nil {
		meta, err := p.prober.Probe(ctx, j.rec.SourcePath)
		if err != nil {
			log.Warn("probe failed, using filename only", "error", err)
		} else {
			j.meta = meta
		}
	}

	j.attrs = p.detector.Detect(j.rec.OriginalFilename, j.meta)
	j.rec.Type = j.attrs.Type
	j.rec.Language = j.attrs.Language
	j.rec.Resolution = j.attrs.Resolution
	j.rec.Subtitles = j.attrs.Subtitles
	log.Info("detected",
		"type", j.attrs.Type,
		"language", j.attrs.Language,
		"language_source", j.attrs.LanguageSource,
		"resolution", j.attrs.Resolution)
}

// extract remuxes the file when routing asks for it. Every failure leaves
// the original file in place for transfer.
func (p *Processor) extract(ctx context.Context, j *job, log *slog.Logger) {
	if p.remuxer == nil || j.meta == nil || !p.cfg.Extraction.applies(j.attrs) {
		return
	}

	sel, err := remux.Plan(j.meta.Tracks, j.attrs.Language, remux.Options{
		PreferredSubtitle: p.cfg.Extraction.PreferredSubtitle,
		TargetCodes:       p.cfg.Extraction.TargetCodes,
	})
	switch {
	case errors.Is(err, remux.ErrNoMatchingAudio), errors.Is(err, remux.ErrNothingToDrop):
		log.Info("skipping extraction", "reason", err)
		return
	case err != nil:
		log.Warn("track selection failed", "error", err)
		return
	}

	out, err := p.remuxer.Remux(ctx, j.rec.SourcePath, sel)
	if err != nil {
		log.Warn("extraction failed, using original", "error", err)
		p.publish(ctx, j, events.EventExtractionFailed, err.Error())
		return
	}
	info, err := os.Stat(out)
	if err != nil {
		log.Warn("extraction output missing, using original", "output", out, "error", err)
		p.publish(ctx, j, events.EventExtractionFailed, err.Error())
		return
	}

	j.file = out
	j.temp = out
	j.rec.ExtractionApplied = true
	j.rec.SizeReductionBytes = max(j.rec.SizeBytes-info.Size(), 0)
	log.Info("extraction complete", "output", out, "saved", j.rec.SizeReductionBytes)
	p.publish(ctx, j, events.EventExtractionSucceeded, "")
}

// target plans the destination and, for series, resolves the canonical
// folder name. A unifier failure keeps the parsed series name.
func (p *Processor) target(ctx context.Context, j *job, log *slog.Logger) (naming.Target, error) {
	plan, err := p.builder.Plan(naming.Input{
		Filename:   j.rec.OriginalFilename,
		Type:       j.attrs.Type,
		Language:   j.attrs.Language,
		Resolution: j.attrs.Resolution,
		Ext:        filepath.Ext(j.file),
		Base:       j.base,
	})
	if err != nil {
		return naming.Target{}, fmt.Errorf("build destination: %w", err)
	}
	j.rec.Episode = plan.Episode

	if p.unifier != nil && (plan.Kind == naming.KindEpisode || plan.Kind == naming.KindGuess) {
		res, err := p.unifier.Resolve(ctx, plan.Series, string(j.attrs.Language), j.base, plan.Season)
		switch {
		case err != nil && ctx.Err() != nil:
			return naming.Target{}, ctx.Err()
		case err != nil:
			log.Warn("series unification failed, using parsed name", "series", plan.Series, "error", err)
		default:
			if res.CanonicalName != plan.Series {
				log.Info("series folder unified", "series", plan.Series, "folder", res.CanonicalName, "source", res.Source)
			}
			plan.Series = res.CanonicalName
		}
	}

	target, err := p.builder.Render(plan)
	if err != nil {
		return naming.Target{}, fmt.Errorf("build destination: %w", err)
	}
	if target.Orphan {
		log.Warn("no series structure found, filed as orphan", "destination", target.Path)
	}
	return target, nil
}

func (p *Processor) fail(ctx context.Context, j *job, err error, log *slog.Logger) {
	log.Error("processing failed", "error", err)
	if j.rec.Status.CanTransitionTo(history.StatusFailed) {
		if terr := p.history.Transition(j.rec, history.StatusFailed, err.Error()); terr != nil {
			log.Error("record failure", "error", terr)
		}
	}
	p.publish(ctx, j, events.EventTransferFailed, err.Error())
}

func (p *Processor) publish(ctx context.Context, j *job, eventType, errMsg string) {
	if p.notifier == nil {
		return
	}
	e := events.NewFileEvent(eventType, j.rec.ID)
	e.Name = j.rec.OriginalFilename
	e.SourcePath = j.file
	e.Destination = j.rec.DestinationPath
	e.MediaType = string(j.rec.Type)
	e.Language = string(j.rec.Language)
	e.SizeBytes = j.rec.SizeBytes - j.rec.SizeReductionBytes
	e.Error = errMsg
	// The context may already be cancelled when reporting a failure.
	if err := p.notifier.Publish(context.WithoutCancel(ctx), e); err != nil {
		p.log.Warn("publish event failed", "type", eventType, "error", err)
	}
}

func (p *Processor) removeOriginal(path string, log *slog.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Error("remove original failed", "error", err)
		return
	}
	log.Info("removed original")
}

func (p *Processor) removeTemp(j *job) {
	if j.temp == "" {
		return
	}
	if err := os.Remove(j.temp); err != nil && !os.IsNotExist(err) {
		p.log.Warn("remove extraction output failed", "path", j.temp, "error", err)
	}
}
