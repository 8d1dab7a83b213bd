package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/panjf2000/ants/v2"

	"coursesearch/internal/adapter/memstore"
	"coursesearch/internal/domain"
	"coursesearch/internal/logging"
	"coursesearch/internal/port"
)

// BuildOptions tunes catalog construction.
type BuildOptions struct {
	BatchSize    int
	Workers      int
	BatchTimeout time.Duration // 0 = no per-batch limit

	// Cache, when set, is consulted before embedding and filled afterwards.
	Cache port.EmbeddingCache

	// Progress is called after each title is resolved, from one goroutine
	// at a time.
	Progress func(done, total int)

	Logger *log.Logger
}

// Builder turns course records into an embedded, immutable catalog.
type Builder struct {
	embedder port.Embedder
	opts     BuildOptions
	logger   *log.Logger
}

func NewBuilder(embedder port.Embedder, opts BuildOptions) *Builder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Builder{
		embedder: embedder,
		opts:     opts,
		logger:   logging.Component(opts.Logger, "build"),
	}
}

// BuildReport summarises one Build call.
type BuildReport struct {
	Records  int
	Embedded int
	Cached   int
	Excluded []error
}

// Build embeds every title once. Records that cannot be embedded are left
// out and logged. Zero records give an empty catalog; records that all fail
// give an error.
func (b *Builder) Build(ctx context.Context, records []domain.CourseRecord) (*memstore.Catalog, error) {
	catalog, _, err := b.BuildWithReport(ctx, records)
	return catalog, err
}

func (b *Builder) BuildWithReport(ctx context.Context, records []domain.CourseRecord) (*memstore.Catalog, *BuildReport, error) {
	model := b.embedder.ModelName()
	report := &BuildReport{Records: len(records)}

	if len(records) == 0 {
		catalog, err := memstore.NewCatalog(model, nil)
		return catalog, report, err
	}

	// Titles are embedded once, however many records share them.
	vectors := make(map[string][]float32)
	queued := make(map[string]struct{})
	var pending []string
	for _, rec := range records {
		title := rec.Title
		if strings.TrimSpace(title) == "" {
			continue
		}
		if _, seen := vectors[title]; seen {
			continue
		}
		if _, seen := queued[title]; seen {
			continue
		}
		if b.opts.Cache != nil {
			if vec, ok := b.opts.Cache.Lookup(model, title); ok {
				vectors[title] = vec
				report.Cached++
				continue
			}
		}
		queued[title] = struct{}{}
		pending = append(pending, title)
	}

	progress := newProgress(len(vectors)+len(pending), b.opts.Progress)
	progress.add(len(vectors))

	fresh, failures, err := b.embedAll(ctx, pending, progress)
	if err != nil {
		return nil, nil, err
	}
	for title, vec := range fresh {
		vectors[title] = vec
	}
	report.Embedded = len(fresh)

	if b.opts.Cache != nil && len(fresh) > 0 {
		titles := make([]string, 0, len(fresh))
		vecs := make([][]float32, 0, len(fresh))
		for _, title := range pending {
			if vec, ok := fresh[title]; ok {
				titles = append(titles, title)
				vecs = append(vecs, vec)
			}
		}
		if err := b.opts.Cache.Store(model, titles, vecs); err != nil {
			b.logger.Warn("failed to update embedding cache", "err", err)
		}
	}

	courses := make([]domain.EmbeddedCourse, 0, len(records))
	dimension := commonDimension(records, vectors)
	for _, rec := range records {
		var excluded error
		vec, ok := vectors[rec.Title]
		switch {
		case strings.TrimSpace(rec.Title) == "":
			excluded = &domain.EmbeddingError{Text: rec.Title, Err: errors.New("empty title")}
		case !ok:
			excluded = &domain.EmbeddingError{Text: rec.Title, Err: failures[rec.Title]}
		case len(vec) == 0:
			excluded = &domain.EmbeddingError{Text: rec.Title, Err: errors.New("empty vector")}
		case len(vec) != dimension:
			excluded = &domain.EmbeddingError{
				Text: rec.Title,
				Err:  fmt.Errorf("dimension mismatch: expected %d, got %d", dimension, len(vec)),
			}
		}
		if excluded != nil {
			b.logger.Warn("excluding course", "title", rec.Title, "err", excluded)
			report.Excluded = append(report.Excluded, excluded)
			continue
		}

		courses = append(courses, domain.EmbeddedCourse{CourseRecord: rec, Embedding: vec})
	}

	if len(courses) == 0 {
		return nil, report, fmt.Errorf("all %d records failed to embed: %w", len(records), report.Excluded[0])
	}

	catalog, err := memstore.NewCatalog(model, courses)
	if err != nil {
		return nil, report, err
	}

	b.logger.Info("catalog ready",
		"courses", catalog.Len(),
		"embedded", report.Embedded,
		"cached", report.Cached,
		"excluded", len(report.Excluded),
		"model", model,
	)
	return catalog, report, nil
}

// commonDimension picks the vector length shared by most titles, so one odd
// vector cannot exclude the rest. Ties go to the length seen first.
func commonDimension(records []domain.CourseRecord, vectors map[string][]float32) int {
	counts := make(map[int]int)
	seen := make(map[string]struct{}, len(vectors))
	best, bestCount := 0, 0
	for _, rec := range records {
		vec, ok := vectors[rec.Title]
		if !ok || len(vec) == 0 {
			continue
		}
		if _, dup := seen[rec.Title]; dup {
			continue
		}
		seen[rec.Title] = struct{}{}

		n := len(vec)
		counts[n]++
		if counts[n] > bestCount {
			best, bestCount = n, counts[n]
		}
	}
	return best
}

// embedAll runs batches on a bounded pool. A failed batch is retried title by
// title so only the titles that really fail are lost.
func (b *Builder) embedAll(ctx context.Context, titles []string, progress *progress) (map[string][]float32, map[string]error, error) {
	vectors := make(map[string][]float32, len(titles))
	failures := make(map[string]error)
	if len(titles) == 0 {
		return vectors, failures, nil
	}

	pool, err := ants.NewPool(b.opts.Workers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(batch []string, vecs [][]float32, errs []error) {
		mu.Lock()
		defer mu.Unlock()
		for i, title := range batch {
			if errs[i] != nil {
				failures[title] = errs[i]
			} else {
				vectors[title] = vecs[i]
			}
		}
		progress.add(len(batch))
	}

	for start := 0; start < len(titles); start += b.opts.BatchSize {
		end := min(start+b.opts.BatchSize, len(titles))
		batch := titles[start:end]

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			vecs, errs := b.embedBatch(ctx, batch)
			record(batch, vecs, errs)
		})
		if err != nil {
			wg.Done()
			errs := make([]error, len(batch))
			for i := range errs {
				errs[i] = err
			}
			record(batch, make([][]float32, len(batch)), errs)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return vectors, failures, nil
}

func (b *Builder) embedBatch(ctx context.Context, batch []string) ([][]float32, []error) {
	vecs, err := b.embed(ctx, batch)
	if err == nil {
		return vecs, make([]error, len(batch))
	}
	if len(batch) == 1 {
		return make([][]float32, 1), []error{err}
	}

	b.logger.Warn("batch failed, retrying one by one", "size", len(batch), "err", err)

	vecs = make([][]float32, len(batch))
	errs := make([]error, len(batch))
	for i, title := range batch {
		one, oneErr := b.embed(ctx, []string{title})
		if oneErr != nil {
			errs[i] = oneErr
			continue
		}
		vecs[i] = one[0]
	}
	return vecs, errs
}

func (b *Builder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if b.opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.BatchTimeout)
		defer cancel()
	}

	vecs, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(texts), len(vecs))
	}
	return vecs, nil
}

type progress struct {
	mu    sync.Mutex
	done  int
	total int
	fn    func(done, total int)
}

func newProgress(total int, fn func(done, total int)) *progress {
	return &progress{total: total, fn: fn}
}

func (p *progress) add(n int) {
	if p.fn == nil || n == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
	p.fn(p.done, p.total)
}
