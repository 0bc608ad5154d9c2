// Package orchestrator runs one harvest: it walks the search listing page by page,
// fetches each article, and stores the ones not seen before.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-harvester/internal/crawler"
	"github.com/JakeFAU/news-harvester/internal/metrics"
)

// DefaultSearchURL is the detik.com search listing template.
const DefaultSearchURL = "https://www.detik.com/search/searchall?query={query}&siteid={site_id}&source_kanal=true&page={page}"

// Extractor pulls listing items and article bodies out of HTML.
type Extractor interface {
	Listing(html []byte, pageURL string) (iter.Seq[crawler.ListingItem], error)
	Body(html []byte) (string, error)
}

// DateNormalizer converts a raw listing date into a timestamp.
type DateNormalizer interface {
	Normalize(raw string) time.Time
}

// Config controls a harvest.
type Config struct {
	SearchURL     string
	Topic         string
	SiteID        int
	PageDelay     time.Duration
	ArchivePrefix string
	ContentType   string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithArchive stores the raw HTML of each new article under a digest of its link.
func WithArchive(store crawler.BlobStore, hasher crawler.Hasher) Option {
	return func(o *Orchestrator) {
		o.archive = store
		o.hasher = hasher
	}
}

// WithPublisher announces each stored article.
func WithPublisher(p crawler.Publisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

// WithLimiter paces article fetches.
func WithLimiter(l crawler.Limiter) Option {
	return func(o *Orchestrator) {
		o.limiter = l
	}
}

// WithClock replaces the wall clock.
func WithClock(c crawler.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// WithIDGenerator replaces the run ID source.
func WithIDGenerator(g crawler.IDGenerator) Option {
	return func(o *Orchestrator) {
		o.ids = g
	}
}

// WithSleep replaces the context-aware sleep used between pages.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = fn
	}
}

// Orchestrator drives fetcher, extractor, normalizer, and store for one run at a time.
type Orchestrator struct {
	cfg        Config
	fetcher    crawler.Fetcher
	extractor  Extractor
	normalizer DateNormalizer
	store      crawler.ArticleStore
	logger     *zap.Logger

	archive   crawler.BlobStore
	hasher    crawler.Hasher
	publisher crawler.Publisher
	limiter   crawler.Limiter
	clock     crawler.Clock
	ids       crawler.IDGenerator
	sleep     func(ctx context.Context, d time.Duration) error

	running atomic.Bool
}

// New constructs an Orchestrator.
func New(
	cfg Config,
	fetcher crawler.Fetcher,
	extractor Extractor,
	normalizer DateNormalizer,
	store crawler.ArticleStore,
	logger *zap.Logger,
	opts ...Option,
) *Orchestrator {
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "text/html; charset=utf-8"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		cfg:        cfg,
		fetcher:    fetcher,
		extractor:  extractor,
		normalizer: normalizer,
		store:      store,
		logger:     logger,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ListingURL fills the search template for one page.
func ListingURL(template, topic string, siteID, page int) string {
	return strings.NewReplacer(
		"{query}", url.QueryEscape(topic),
		"{site_id}", strconv.Itoa(siteID),
		"{page}", strconv.Itoa(page),
	).Replace(template)
}

// Run harvests listing pages 1..pageCount. Page and item failures are logged and
// counted in the summary. The returned error is reserved for an invalid page count,
// an overlapping run (crawler.ErrRunInProgress), and cancellation; on cancellation the
// partial summary is returned alongside the error.
func (o *Orchestrator) Run(ctx context.Context, pageCount int) (crawler.RunSummary, error) {
	if pageCount <= 0 {
		return crawler.RunSummary{}, fmt.Errorf("page count must be positive, got %d", pageCount)
	}
	if err := ctx.Err(); err != nil {
		return crawler.RunSummary{}, fmt.Errorf("harvest not started: %w", err)
	}
	if !o.running.CompareAndSwap(false, true) {
		return crawler.RunSummary{}, crawler.ErrRunInProgress
	}
	defer o.running.Store(false)

	summary := crawler.RunSummary{RunID: o.newRunID(), Started: o.now()}
	logger := o.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("harvest started", zap.String("topic", o.cfg.Topic), zap.Int("pages", pageCount))

	var runErr error
	for page := 1; page <= pageCount; page++ {
		o.processPage(ctx, logger, page, &summary)
		if err := o.pause(ctx); err != nil {
			runErr = fmt.Errorf("harvest interrupted after page %d: %w", page, err)
			break
		}
	}

	summary.Finished = o.now()
	status := "succeeded"
	if runErr != nil {
		status = "canceled"
	}
	metrics.ObserveRun(status, summary.Duration())
	logger.Info("harvest finished",
		zap.String("status", status),
		zap.Int("inserted", summary.Inserted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("pages_failed", summary.PagesFailed),
		zap.Int("pages_empty", summary.PagesEmpty),
		zap.Duration("duration", summary.Duration()),
	)
	return summary, runErr
}

// Running reports whether a run is in progress.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

func (o *Orchestrator) processPage(ctx context.Context, logger *zap.Logger, page int, summary *crawler.RunSummary) {
	pageURL := ListingURL(o.cfg.SearchURL, o.cfg.Topic, o.cfg.SiteID, page)
	pageLogger := logger.With(zap.Int("page", page), zap.String("url", pageURL))

	resp, err := o.fetcher.Fetch(ctx, crawler.FetchRequest{URL: pageURL})
	if err != nil {
		summary.PagesFailed++
		metrics.ObservePage(metrics.StatusClass(0))
		pageLogger.Warn("listing page fetch failed", zap.Error(err))
		return
	}
	metrics.ObservePage(metrics.StatusClass(resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		summary.PagesFailed++
		pageLogger.Warn("listing page returned unexpected status",
			zap.Int("status", resp.StatusCode),
			zap.Error(fmt.Errorf("%w: %d", crawler.ErrUnexpectedStatus, resp.StatusCode)),
		)
		return
	}

	items, err := o.extractor.Listing(resp.Body, pageURL)
	if err != nil {
		summary.PagesFailed++
		pageLogger.Warn("listing page could not be parsed", zap.Error(err))
		return
	}

	seen := 0
	for item := range items {
		if ctx.Err() != nil {
			return
		}
		seen++
		outcome, err := o.processItem(ctx, pageLogger, summary.RunID, item)
		if outcome != metrics.OutcomeInserted && ctx.Err() != nil {
			pageLogger.Info("article abandoned on shutdown", zap.String("link", item.Link))
			return
		}
		metrics.ObserveArticle(outcome)
		switch outcome {
		case metrics.OutcomeInserted:
			summary.Inserted++
			pageLogger.Info("article stored",
				zap.String("link", item.Link),
				zap.String("title", item.Title),
				zap.Int("inserted", summary.Inserted),
			)
		case metrics.OutcomeSkipped:
			summary.Skipped++
			pageLogger.Info("article already stored", zap.String("link", item.Link))
		default:
			summary.Failed++
			pageLogger.Error("article processing failed", zap.String("link", item.Link), zap.Error(err))
		}
	}
	if seen == 0 {
		summary.PagesEmpty++
		pageLogger.Info("no articles on listing page")
	}
}

// processItem returns the item's outcome and, for failures, the reason. Errors stop
// here; the caller logs them once.
func (o *Orchestrator) processItem(
	ctx context.Context,
	logger *zap.Logger,
	runID string,
	item crawler.ListingItem,
) (string, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx, item.Link); err != nil {
			return metrics.OutcomeFailed, err
		}
	}
	resp, err := o.fetcher.Fetch(ctx, crawler.FetchRequest{URL: item.Link})
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("fetch article: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return metrics.OutcomeFailed, fmt.Errorf("fetch article: %w: %d", crawler.ErrUnexpectedStatus, resp.StatusCode)
	}
	body, err := o.extractor.Body(resp.Body)
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("extract body: %w", err)
	}

	published := o.now()
	if item.HasDate() {
		published = o.normalizer.Normalize(item.RawDate)
	} else {
		logger.Warn("listing item has no date, using crawl time", zap.String("link", item.Link))
	}

	exists, err := o.store.Exists(ctx, item.Link)
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("check stored article: %w", err)
	}
	if exists {
		return metrics.OutcomeSkipped, nil
	}

	article := crawler.Article{
		Link:        item.Link,
		Title:       item.Title,
		PublishedAt: published,
		Body:        body,
		CrawledAt:   o.now(),
	}
	if err := o.store.Insert(ctx, article); err != nil {
		if errors.Is(err, crawler.ErrDuplicateArticle) {
			return metrics.OutcomeSkipped, nil
		}
		return metrics.OutcomeFailed, fmt.Errorf("insert article: %w", err)
	}

	o.archivePage(ctx, logger, item.Link, resp.Body)
	o.announce(ctx, logger, runID, article)
	return metrics.OutcomeInserted, nil
}

func (o *Orchestrator) archivePage(ctx context.Context, logger *zap.Logger, link string, html []byte) {
	if o.archive == nil || o.hasher == nil {
		return
	}
	key, err := o.hasher.Hash([]byte(link))
	if err != nil {
		logger.Warn("archive key failed", zap.String("link", link), zap.Error(err))
		return
	}
	uri, err := o.archive.PutObject(ctx, o.archivePath(key), o.cfg.ContentType, html)
	if err != nil {
		logger.Warn("archive page failed", zap.String("link", link), zap.Error(err))
		return
	}
	logger.Debug("page archived", zap.String("link", link), zap.String("uri", uri))
}

func (o *Orchestrator) archivePath(key string) string {
	prefix := strings.Trim(o.cfg.ArchivePrefix, "/")
	if prefix == "" {
		return key + ".html"
	}
	return fmt.Sprintf("%s/%s.html", prefix, key)
}

func (o *Orchestrator) announce(ctx context.Context, logger *zap.Logger, runID string, article crawler.Article) {
	if o.publisher == nil {
		return
	}
	id, err := o.publisher.Publish(ctx, crawler.ArticleEvent{
		RunID:       runID,
		Link:        article.Link,
		Title:       article.Title,
		PublishedAt: article.PublishedAt,
	})
	if err != nil {
		logger.Warn("article notification failed", zap.String("link", article.Link), zap.Error(err))
		return
	}
	logger.Debug("article announced", zap.String("link", article.Link), zap.String("message_id", id))
}

func (o *Orchestrator) pause(ctx context.Context) error {
	if o.cfg.PageDelay <= 0 {
		return ctx.Err()
	}
	start := time.Now()
	err := o.sleep(ctx, o.cfg.PageDelay)
	metrics.ObservePageDelay(time.Since(start))
	return err
}

func (o *Orchestrator) newRunID() string {
	if o.ids == nil {
		return ""
	}
	id, err := o.ids.NewID()
	if err != nil {
		o.logger.Warn("run id generation failed", zap.Error(err))
		return ""
	}
	return id
}

func (o *Orchestrator) now() time.Time {
	if o.clock != nil {
		return o.clock.Now()
	}
	return time.Now()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
