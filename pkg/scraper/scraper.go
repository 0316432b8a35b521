package scraper

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"emojiharvest/internal/downloader"
	"emojiharvest/pkg/collector"
	"emojiharvest/pkg/config"
	errs "emojiharvest/pkg/errors"
	"emojiharvest/pkg/logger"
	"emojiharvest/pkg/manifest"
	"emojiharvest/pkg/ratelimit"
	"emojiharvest/pkg/retry"
	"emojiharvest/pkg/sink"
	"emojiharvest/pkg/source/browser"
	"emojiharvest/pkg/source/httpapi"
	"emojiharvest/pkg/source/replay"
	"emojiharvest/pkg/storage"
	"emojiharvest/pkg/ui"

	"github.com/google/uuid"
)

// Scraper wires a configured source, collector and sinks into one run
type Scraper struct {
	config   *config.Config
	open     SourceOpener
	sinks    sink.Multi
	outputs  []string
	images   *downloader.Sink
	observer collector.Observer
	notifier Notifier
	tokens   TokenProvider
	stdout   io.Writer
	logger   logger.Logger
	abort    context.Context
}

// Option customises a Scraper
type Option func(*Scraper)

// WithSource replaces the configured source
func WithSource(open SourceOpener) Option {
	return func(s *Scraper) { s.open = open }
}

func WithObserver(o collector.Observer) Option {
	return func(s *Scraper) { s.observer = o }
}

func WithNotifier(n Notifier) Option {
	return func(s *Scraper) { s.notifier = n }
}

// WithTokens sets where the api source looks up its bearer token
func WithTokens(t TokenProvider) Option {
	return func(s *Scraper) { s.tokens = t }
}

// WithStdout sets the writer used by output.stdout
func WithStdout(w io.Writer) Option {
	return func(s *Scraper) { s.stdout = w }
}

// WithAbort sets a context whose end stops image downloads still running
// for the partial emit of a cancelled run. Result files are always written.
func WithAbort(ctx context.Context) Option {
	return func(s *Scraper) { s.abort = ctx }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// New validates cfg and prepares the sinks. The source is opened by Run.
func New(cfg *config.Config, opts ...Option) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Scraper{
		config:   cfg,
		observer: collector.NopObserver{},
		stdout:   os.Stdout,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		n := cfg.Notifications
		s.notifier = ui.NewNotifier(n.Enabled, n.OnComplete, n.OnError)
	}
	if s.open == nil {
		s.open = s.openConfigured
	}

	if err := s.buildSinks(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scraper) buildSinks() error {
	cfg := s.config
	format, err := sink.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	retryCfg := retry.FromConfig(cfg.Retry, s.logger)

	if cfg.Output.Path != "" {
		f := sink.NewFile(cfg.Output.Path, format)
		f.Logger = s.logger
		s.add(f, f.String())
	}
	if cfg.Output.Stdout {
		w := sink.NewWriter(s.stdout, format)
		s.add(w, w.String())
	}
	if cfg.Output.Endpoint != "" {
		h := sink.NewHTTP(cfg.Output.Endpoint, retryCfg)
		h.UserAgent = cfg.API.UserAgent
		h.Logger = s.logger
		s.add(h, h.String())
	}
	if cfg.Images.Directory != "" {
		store, err := storage.NewManager(cfg.Images.Directory, cfg.Images.OverwriteExisting)
		if err != nil {
			return fmt.Errorf("failed to prepare image directory: %w", err)
		}
		fetcher := downloader.NewHTTPFetcher(cfg.Images.Timeout, retryCfg)
		fetcher.UserAgent = cfg.API.UserAgent
		s.images = downloader.NewSink(fetcher, store, cfg.Images.ConcurrentWorkers, limiterFor(cfg.RateLimit), s.logger)
		if s.abort != nil {
			s.images.AbortOn(s.abort)
		}
		s.add(s.images, s.images.String()+":"+cfg.Images.Directory)
	}

	if len(s.sinks) == 0 {
		return fmt.Errorf("no output configured")
	}
	return nil
}

func (s *Scraper) add(k collector.Sink, name string) {
	s.sinks = append(s.sinks, k)
	s.outputs = append(s.outputs, name)
}

// limiterFor keeps an unlimited configuration a nil interface
func limiterFor(rc config.RateLimitConfig) ratelimit.Limiter {
	if tb := ratelimit.FromConfig(rc); tb != nil {
		return tb
	}
	return nil
}

// Outputs names the sinks a run emits to
func (s *Scraper) Outputs() []string {
	return append([]string(nil), s.outputs...)
}

// Run opens the source, collects every mode and emits once. The manifest
// is written whenever output.manifest is set, including for failed runs.
// The report is never nil.
func (s *Scraper) Run(ctx context.Context) (*collector.Report, error) {
	cfg := s.config
	runID := uuid.NewString()
	log := s.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"source": cfg.Source.Kind,
	})
	logger.LogComponentStart("scraper", map[string]interface{}{
		"source":  cfg.Source.Kind,
		"outputs": s.outputs,
	})

	started := time.Now()
	report, err := s.collect(ctx, runID, log)
	if report == nil {
		report = &collector.Report{
			RunID:      runID,
			Result:     collector.ResultSet{},
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
	}

	s.writeManifest(report, err, log)
	s.summarize(report, err, log)
	logger.LogComponentStop("scraper", string(outcome(err)))
	return report, err
}

func (s *Scraper) collect(ctx context.Context, runID string, log logger.Logger) (*collector.Report, error) {
	source, closeSource, err := s.open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrorTypeCancelled, err, "run cancelled before the view was located")
		}
		if errs.TypeOf(err) == errs.ErrorTypeUnknown {
			err = errs.Wrap(errs.ErrorTypeViewUnavailable, err, "could not open source")
		}
		return nil, err
	}
	defer closeSource()

	c, err := collector.New(source, s.sinks, collector.Options{
		Modes:       s.modesFor(source, log),
		Delay:       s.config.Collector.Delay,
		MaxAdvances: s.config.Collector.MaxAdvances,
		RunID:       runID,
		Observer:    s.observer,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collector: %w", err)
	}
	return c.Run(ctx)
}

// modesFor returns the configured modes. A replay source reproduces its
// recording, so its own modes win.
func (s *Scraper) modesFor(source collector.ViewSource, log logger.Logger) []collector.Mode {
	if r, ok := source.(*replay.Source); ok {
		modes := r.Modes()
		log.DebugWithFields("Using recorded modes", map[string]interface{}{"modes": len(modes)})
		return modes
	}
	modes := make([]collector.Mode, 0, len(s.config.Collector.Modes))
	for _, m := range s.config.Collector.Modes {
		modes = append(modes, collector.Mode(m))
	}
	return modes
}

func (s *Scraper) openConfigured(ctx context.Context) (collector.ViewSource, func(), error) {
	cfg := s.config
	switch cfg.Source.Kind {
	case config.SourceReplay:
		src, err := replay.Load(cfg.Replay.Fixture)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil

	case config.SourceAPI:
		token, err := s.apiToken()
		if err != nil {
			return nil, nil, err
		}
		client, err := httpapi.NewClient(cfg.API.BaseURL, cfg.API.PageSize, cfg.API.Timeout,
			httpapi.WithToken(token),
			httpapi.WithLimiter(limiterFor(cfg.RateLimit)),
			httpapi.WithRetry(retry.FromConfig(cfg.Retry, s.logger)),
			httpapi.WithUserAgent(cfg.API.UserAgent),
			httpapi.WithLogger(s.logger),
		)
		if err != nil {
			return nil, nil, err
		}
		return httpapi.NewSource(client), func() {}, nil

	default:
		page, cancel, err := browser.Launch(ctx, cfg.Browser, s.logger)
		if err != nil {
			return nil, nil, err
		}
		src := browser.NewSource(page, browser.SelectorsFromConfig(cfg.Browser.Selectors),
			browser.WithStep(cfg.Browser.ScrollStep),
			browser.WithLogger(s.logger),
		)
		return src, cancel, nil
	}
}

// apiToken returns "" when no provider is set or no token is stored;
// public listings need none.
func (s *Scraper) apiToken() (string, error) {
	if s.tokens == nil {
		return "", nil
	}
	token, err := s.tokens.Token(s.config.API.Account)
	if err != nil {
		s.logger.DebugWithFields("No API token found, continuing without one", map[string]interface{}{
			"account": s.config.API.Account,
		})
		return "", nil
	}
	return token, nil
}

func (s *Scraper) writeManifest(report *collector.Report, runErr error, log logger.Logger) {
	if !s.config.Output.Manifest {
		return
	}
	m := manifest.FromReport(report, runErr, s.config.Source.Kind)
	m.Outputs = s.Outputs()
	if s.images != nil && report.Emitted {
		summary := s.images.Summary()
		m.Images = &summary
	}

	path := manifest.PathFor(s.config.Output.Path)
	if err := m.Save(path); err != nil {
		log.WithError(err).Warn("Failed to write manifest")
		return
	}
	log.DebugWithFields("Manifest written", map[string]interface{}{"path": path})
}

func (s *Scraper) summarize(report *collector.Report, runErr error, log logger.Logger) {
	fields := map[string]interface{}{
		"total":    report.Total(),
		"modes":    len(report.Modes),
		"cycles":   report.Cycles(),
		"partial":  report.Partial,
		"emitted":  report.Emitted,
		"duration": report.Duration().Round(time.Millisecond),
	}
	if s.images != nil && report.Emitted {
		sum := s.images.Summary()
		fields["images_downloaded"] = sum.Downloaded
		fields["images_failed"] = sum.Failed
	}

	if runErr == nil {
		log.InfoWithFields("Harvest complete", fields)
		s.notifier.SendSuccess("Harvest complete", fmt.Sprintf("%d emoji collected", report.Total()))
		return
	}

	fields["error_type"] = string(errs.TypeOf(runErr))
	log.WithError(runErr).ErrorWithFields("Harvest failed", fields)

	msg := runErr.Error()
	if report.Emitted {
		msg = fmt.Sprintf("%s (partial result with %d emoji emitted)", msg, report.Total())
	}
	s.notifier.SendError("Harvest failed", msg)
}

func outcome(err error) errs.ErrorType {
	if err == nil {
		return "complete"
	}
	return errs.TypeOf(err)
}
