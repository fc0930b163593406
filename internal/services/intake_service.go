package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/osvaldoandrade/scanq/internal/metrics"
	"github.com/osvaldoandrade/scanq/internal/providers"
	"github.com/osvaldoandrade/scanq/internal/repository"
	"github.com/osvaldoandrade/scanq/pkg/catalog"
	"github.com/osvaldoandrade/scanq/pkg/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Decimal megabytes, matching the limit the submission page advertises.
const bytesPerMB = int64(1_000_000)

// Rejection is a submit refusal the submitter caused. Controllers surface
// its message verbatim with a 4xx status; anything else stays internal.
type Rejection struct {
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func reject(format string, args ...any) error {
	return &Rejection{Message: fmt.Sprintf(format, args...)}
}

// SubmitRequest is one parsed multipart submission.
type SubmitRequest struct {
	Filename        string
	Data            []byte
	DisabledWorkers []string
	Password        string
	// ValiditySeconds > 0 requests a shareable seed for the result view.
	ValiditySeconds int64
}

// SubmitOutcome carries what the accepted-submission response needs.
type SubmitOutcome struct {
	Task     *domain.Task
	Link     string
	Seed     string
	Lifetime int64
}

type IntakeService interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitOutcome, error)
	PageContext() domain.PageContext
	Stats(ctx context.Context) (*domain.StreamStats, error)
	CleanupExpired(ctx context.Context, limit int, before time.Time) (int, error)
}

type intakeService struct {
	repo              repository.TaskRepository
	uploader          providers.Uploader
	cat               *catalog.Catalog
	logger            *slog.Logger
	now               func() time.Time
	publicBaseURL     string
	maxFileSizeMB     int
	maxSeedValidity   time.Duration
	advancedSelection bool
	disclaimers       []string
}

func NewIntakeService(repo repository.TaskRepository, uploader providers.Uploader, cat *catalog.Catalog, logger *slog.Logger, now func() time.Time, publicBaseURL string, maxFileSizeMB int, maxSeedValiditySeconds int64, advancedSelection bool, disclaimers []string) IntakeService {
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 100
	}
	if maxSeedValiditySeconds <= 0 {
		maxSeedValiditySeconds = 7 * 24 * 3600
	}
	return &intakeService{
		repo:              repo,
		uploader:          uploader,
		cat:               cat,
		logger:            logger,
		now:               now,
		publicBaseURL:     strings.TrimRight(publicBaseURL, "/"),
		maxFileSizeMB:     maxFileSizeMB,
		maxSeedValidity:   time.Duration(maxSeedValiditySeconds) * time.Second,
		advancedSelection: advancedSelection,
		disclaimers:       disclaimers,
	}
}

// Submit validates one upload, stores the sample bytes and enqueues the task
// for the external workers. The size gate and the worker-name filter mirror
// what the submission page enforces locally, so a well-behaved client never
// sees these rejections.
func (s *intakeService) Submit(ctx context.Context, req SubmitRequest) (*SubmitOutcome, error) {
	start := time.Now()
	size := int64(len(req.Data))

	ctx, span := otel.Tracer("scanq/intake").Start(ctx, "scanq.task.submit",
		trace.WithAttributes(
			attribute.String("scanq.filename", req.Filename),
			attribute.Int64("scanq.size_bytes", size),
		),
	)
	defer span.End()

	if strings.TrimSpace(req.Filename) == "" {
		s.observeSubmit(start, "rejected")
		span.SetStatus(codes.Error, "missing file")
		return nil, reject("missing file")
	}
	if size > int64(s.maxFileSizeMB)*bytesPerMB {
		s.observeSubmit(start, "rejected")
		span.SetStatus(codes.Error, "size exceeded")
		return nil, reject("file is too big (max %d MB)", s.maxFileSizeMB)
	}

	selectable := s.cat.SelectableWorkers()
	disabled := filterKnown(req.DisabledWorkers, selectable)
	if size == 0 {
		// Empty files are accepted but nothing can analyze them.
		disabled = catalog.Names(selectable)
	}

	id := uuid.NewString()
	span.SetAttributes(attribute.String("scanq.task_id", id))

	// path.Base strips any directory the client smuggled into the filename.
	objPath := path.Join(id, path.Base(req.Filename))
	sampleURL, err := s.uploader.UploadBytes(ctx, objPath, "application/octet-stream", req.Data)
	if err != nil {
		s.observeSubmit(start, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("store sample: %w", err)
	}

	task, err := s.repo.Enqueue(ctx, id, req.Filename, size, disabled, req.Password, sampleURL)
	if err != nil {
		s.observeSubmit(start, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := &SubmitOutcome{Task: task, Link: s.publicBaseURL + "/analysis/" + id}
	if req.ValiditySeconds > 0 {
		validity := time.Duration(req.ValiditySeconds) * time.Second
		if validity > s.maxSeedValidity {
			validity = s.maxSeedValidity
		}
		seed := newSeed()
		if err := s.repo.IssueSeed(ctx, seed, id, validity); err != nil {
			s.observeSubmit(start, "error")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		task.Seed = seed
		out.Seed = seed
		out.Lifetime = int64(validity / time.Second)
		out.Link = s.publicBaseURL + "/analysis/" + id + "/seed-" + seed
	}

	s.observeSubmit(start, "accepted")
	metrics.SubmissionSizeBytes.Observe(float64(size))
	s.logger.Info("task submitted",
		"taskId", id,
		"filename", req.Filename,
		"sizeBytes", size,
		"disabledWorkers", len(disabled),
		"seed", out.Seed != "",
	)
	return out, nil
}

func (s *intakeService) observeSubmit(start time.Time, outcome string) {
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	metrics.SubmitLatencySeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// PageContext assembles what the submission page consumes. Zero-replica
// workers never leave the catalog; settings never leave the server.
func (s *intakeService) PageContext() domain.PageContext {
	return domain.PageContext{
		MaxFileSizeMB:     s.maxFileSizeMB,
		Workers:           s.cat.SelectableWorkers(),
		AdvancedSelection: s.advancedSelection,
		Disclaimers:       s.disclaimers,
	}
}

func (s *intakeService) Stats(ctx context.Context) (*domain.StreamStats, error) {
	depth, err := s.repo.StreamDepth(ctx)
	if err != nil {
		return nil, err
	}
	tracked, err := s.repo.TrackedTasks(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.StreamStats{
		StreamLength:   depth,
		TrackedTasks:   tracked,
		EnabledWorkers: int64(len(s.cat.SelectableWorkers())),
	}, nil
}

func (s *intakeService) CleanupExpired(ctx context.Context, limit int, before time.Time) (int, error) {
	if before.IsZero() {
		before = s.now()
	}
	if limit <= 0 {
		limit = 1000
	}
	return s.repo.CleanupExpired(ctx, limit, before)
}

// filterKnown drops names that are not selectable workers, preserving the
// order of the survivors and collapsing duplicates.
func filterKnown(names []string, selectable []domain.Worker) []string {
	if len(names) == 0 {
		return nil
	}
	known := make(map[string]bool, len(selectable))
	for _, w := range selectable {
		known[w.Name] = true
	}
	var out []string
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if known[n] && !seen[n] {
			out = append(out, n)
			seen[n] = true
		}
	}
	return out
}

// newSeed mints the opaque share handle. URL-safe alphabet so the seed can
// ride in a path segment.
func newSeed() string {
	b := make([]byte, 18)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
