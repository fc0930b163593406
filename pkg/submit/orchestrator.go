package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/osvaldoandrade/scanq/pkg/client"
	"github.com/osvaldoandrade/scanq/pkg/domain"
	"github.com/osvaldoandrade/scanq/pkg/secret"
	"github.com/osvaldoandrade/scanq/pkg/selection"
)

// The page advertises the cap in decimal megabytes.
const bytesPerMB = 1_000_000

const defaultMaxInFlight = 4

// SubmitFunc dispatches one assembled payload to the intake service.
// Rejections surface as *client.APIError; anything else is a transport
// problem.
type SubmitFunc func(ctx context.Context, p Payload) (*domain.SubmitResult, error)

// Update is one state change notification, keyed by upload id so concurrent
// failures never clobber each other's message.
type Update struct {
	UploadID string
	Filename string
	State    State
	Failure  FailureKind
	Message  string
	TaskID   string
}

type Config struct {
	// MaxFileSizeMB caps accepted files; zero means no local cap.
	MaxFileSizeMB int
	// MaxInFlight bounds concurrent dispatches.
	MaxInFlight int
	// CSRFToken is carried into every payload; issuance happens elsewhere.
	CSRFToken string
	// ValiditySeconds, when positive, asks the service for a shareable seed.
	ValiditySeconds int64
}

// Orchestrator owns the per-file submission lifecycle: queue admission with
// the local size gate, bounded concurrent dispatch, snapshotting of the
// selection matrix and secret at in-flight entry, terminal bookkeeping and
// the hand-off of task ids to the redirector.
type Orchestrator struct {
	cfg        Config
	matrix     *selection.Matrix
	disclosure *secret.Disclosure
	submit     SubmitFunc
	redirector *Redirector

	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
	updates   chan Update

	mu      sync.Mutex
	closed  bool
	order   []string
	uploads map[string]*Upload
}

// NewOrchestrator wires the core. The redirector may be nil when the caller
// handles navigation itself.
func NewOrchestrator(cfg Config, matrix *selection.Matrix, disclosure *secret.Disclosure, submitFn SubmitFunc, redirector *Redirector) *Orchestrator {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = defaultMaxInFlight
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:        cfg,
		matrix:     matrix,
		disclosure: disclosure,
		submit:     submitFn,
		redirector: redirector,
		ctx:        ctx,
		cancel:     cancel,
		sem:        make(chan struct{}, cfg.MaxInFlight),
		updates:    make(chan Update, 128),
		uploads:    make(map[string]*Upload),
	}
}

// Add queues one file. A file over the cap fails immediately, before any
// network traffic; everything else is dispatched asynchronously. The
// returned Upload is a snapshot taken right after admission.
func (o *Orchestrator) Add(filename string, data []byte) (Upload, error) {
	up := &Upload{
		ID:        uuid.NewString(),
		Filename:  filename,
		SizeBytes: int64(len(data)),
		State:     StateQueued,
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return Upload{}, errors.New("orchestrator closed")
	}
	o.uploads[up.ID] = up
	o.order = append(o.order, up.ID)
	snapshot := *up
	o.mu.Unlock()
	o.emit(snapshot)

	if o.cfg.MaxFileSizeMB > 0 && up.SizeBytes > int64(o.cfg.MaxFileSizeMB)*bytesPerMB {
		return o.fail(up.ID, FailureSize, fmt.Sprintf("file is too big (max %d MB)", o.cfg.MaxFileSizeMB)), nil
	}

	o.wg.Add(1)
	go o.dispatch(up.ID, data)
	return snapshot, nil
}

func (o *Orchestrator) dispatch(id string, data []byte) {
	defer o.wg.Done()

	select {
	case o.sem <- struct{}{}:
	case <-o.ctx.Done():
		o.fail(id, FailureNetwork, "submission abandoned before dispatch")
		return
	}
	defer func() { <-o.sem }()

	payload := o.beginUpload(id, data)

	res, err := o.submit(o.ctx, payload)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			o.fail(id, FailureRejected, apiErr.Message)
			return
		}
		o.fail(id, FailureNetwork, "the analysis service could not be reached")
		return
	}
	o.succeed(id, res.TaskID)
}

// beginUpload moves the upload in flight and takes the selection and secret
// snapshot. This is the single read of mutable state for this upload; the
// payload is carried unchanged from here on, so toggles made while the
// request is on the wire only affect later uploads.
func (o *Orchestrator) beginUpload(id string, data []byte) Payload {
	disabled := o.matrix.Disabled()
	secretValue := o.disclosure.Current()

	o.mu.Lock()
	up := o.uploads[id]
	up.State = StateUploading
	snapshot := *up
	o.mu.Unlock()
	o.emit(snapshot)

	return Payload{
		Filename:        snapshot.Filename,
		File:            data,
		DisabledWorkers: disabled,
		Secret:          secretValue,
		CSRFToken:       o.cfg.CSRFToken,
		ValiditySeconds: o.cfg.ValiditySeconds,
	}
}

func (o *Orchestrator) fail(id string, kind FailureKind, message string) Upload {
	o.mu.Lock()
	up := o.uploads[id]
	if up.Terminal() {
		snapshot := *up
		o.mu.Unlock()
		return snapshot
	}
	up.State = StateFailed
	up.Failure = kind
	up.Message = message
	snapshot := *up
	o.mu.Unlock()
	o.emit(snapshot)
	return snapshot
}

func (o *Orchestrator) succeed(id, taskID string) {
	o.mu.Lock()
	up := o.uploads[id]
	if up.Terminal() {
		o.mu.Unlock()
		return
	}
	up.State = StateSucceeded
	up.TaskID = taskID
	snapshot := *up
	o.mu.Unlock()
	o.emit(snapshot)

	if o.redirector != nil {
		o.redirector.Schedule(taskID)
	}
}

// emit is best-effort: when a slow consumer lets the buffer fill, the
// uploads map stays authoritative and the notification is dropped.
func (o *Orchestrator) emit(up Upload) {
	update := Update{
		UploadID: up.ID,
		Filename: up.Filename,
		State:    up.State,
		Failure:  up.Failure,
		Message:  up.Message,
		TaskID:   up.TaskID,
	}
	select {
	case o.updates <- update:
	default:
	}
}

// Updates streams state-change notifications. The channel closes on Close.
func (o *Orchestrator) Updates() <-chan Update {
	return o.updates
}

// Status returns a snapshot of one upload.
func (o *Orchestrator) Status(id string) (Upload, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	up, ok := o.uploads[id]
	if !ok {
		return Upload{}, false
	}
	return *up, true
}

// Uploads returns snapshots of every upload in admission order.
func (o *Orchestrator) Uploads() []Upload {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Upload, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, *o.uploads[id])
	}
	return out
}

// Wait blocks until every admitted upload reached a terminal state.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close abandons pending dispatches, waits for in-flight ones to settle and
// closes the update stream.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		o.mu.Unlock()
		o.cancel()
		o.wg.Wait()
		if o.redirector != nil {
			o.redirector.Stop()
		}
		close(o.updates)
	})
}
