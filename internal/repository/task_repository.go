package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/osvaldoandrade/scanq/internal/metrics"
	"github.com/osvaldoandrade/scanq/internal/tracing"
	"github.com/osvaldoandrade/scanq/pkg/domain"

	"github.com/go-redis/redis/v8"
)

// ===== Erros sentinela =====

var (
	// ErrNotFound: task desconhecida ou já removida pela retenção.
	ErrNotFound = errors.New("not-found")
	// ErrSeedExpired: seed desconhecida ou fora da validade.
	ErrSeedExpired = errors.New("seed-expired")
)

type TaskRepository interface {
	Enqueue(ctx context.Context, id string, filename string, sizeBytes int64, disabledWorkers []string, password string, sampleURL string) (*domain.Task, error)
	Get(ctx context.Context, taskID string) (*domain.Task, error)
	SampleURL(ctx context.Context, taskID string) (string, error)
	IssueSeed(ctx context.Context, seed string, taskID string, validity time.Duration) error
	ResolveSeed(ctx context.Context, seed string) (string, error)
	Reports(ctx context.Context, taskID string, workers []string) ([]domain.Report, error)
	StreamDepth(ctx context.Context) (int64, error)
	TrackedTasks(ctx context.Context) (int64, error)

	// Limpeza administrativa por índice Z (sem custo no Get)
	CleanupExpired(ctx context.Context, limit int, before time.Time) (int, error)
}

type taskRedisRepo struct {
	rdb          *redis.Client
	tz           *time.Location
	streamMaxLen int64
	retention    time.Duration
}

// NewTaskRepository builds the Redis-backed repository. streamMaxLen bounds
// the intake stream length (approximate trim); retention controls how long a
// task record stays visible after submission.
func NewTaskRepository(rdb *redis.Client, tz *time.Location, streamMaxLen int64, retention time.Duration) TaskRepository {
	if tz == nil {
		tz = time.UTC
	}
	if streamMaxLen <= 0 {
		streamMaxLen = 10000
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &taskRedisRepo{
		rdb:          rdb,
		tz:           tz,
		streamMaxLen: streamMaxLen,
		retention:    retention,
	}
}

// ===== Chaves Redis =====

func (r *taskRedisRepo) keyStream() string        { return "scanq:tasks:stream" }
func (r *taskRedisRepo) keyTask(id string) string { return fmt.Sprintf("scanq:task:%s", id) }
func (r *taskRedisRepo) keyTTLIndex() string      { return "scanq:tasks:ttl" } // ZSET: member=id, score=expireAt (epoch)
func (r *taskRedisRepo) keySeed(seed string) string {
	return fmt.Sprintf("scanq:seed:%s", seed)
}
func (r *taskRedisRepo) keySeedIndex() string { return "scanq:seeds:ttl" } // ZSET: member=seed, score=expireAt (epoch)
func (r *taskRedisRepo) keyReport(taskID, worker string) string {
	return fmt.Sprintf("scanq:report:%s:%s", taskID, worker)
}

func (r *taskRedisRepo) now() time.Time { return time.Now().In(r.tz) }

// ===== Helpers =====

func marshal(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func unmarshalTask(jsonStr string) (*domain.Task, error) {
	var t domain.Task
	if err := json.Unmarshal([]byte(jsonStr), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Índice de retenção (score = epoch seg)
func (r *taskRedisRepo) registerTTL(ctx context.Context, id string, expireAt time.Time) error {
	z := &redis.Z{Score: float64(expireAt.UTC().Unix()), Member: id}
	return r.rdb.ZAdd(ctx, r.keyTTLIndex(), z).Err()
}

// Remoção defensiva total de uma task
func (r *taskRedisRepo) removeTaskFully(ctx context.Context, id string) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, r.keyTask(id))
	pipe.ZRem(ctx, r.keyTTLIndex(), id)
	_, err := pipe.Exec(ctx)
	return err
}

// ===== Implementação =====

// Enqueue persists the task record and publishes it on the intake stream for
// the external analysis workers. The caller supplies the id because the
// sample object path embeds it before the record exists.
func (r *taskRedisRepo) Enqueue(ctx context.Context, id string, filename string, sizeBytes int64, disabledWorkers []string, password string, sampleURL string) (*domain.Task, error) {
	now := r.now()
	disabled := disabledWorkers
	if disabled == nil {
		disabled = []string{}
	}

	task := domain.Task{
		ID:              id,
		Filename:        filename,
		SizeBytes:       sizeBytes,
		DisabledWorkers: disabledWorkers,
		Password:        password,
		Status:          domain.StatusSubmitted,
		SubmittedAt:     now,
	}
	js := marshal(task)

	// HASH por task: o JSON serve a consulta, sample_url aponta o objeto.
	if err := r.rdb.HSet(ctx, r.keyTask(id), map[string]interface{}{
		"task":       js,
		"sample_url": sampleURL,
	}).Err(); err != nil {
		return nil, fmt.Errorf("redis HSET task: %w", err)
	}

	// Índice de retenção (não faz limpeza agora)
	if err := r.registerTTL(ctx, id, now.Add(r.retention)); err != nil {
		return nil, fmt.Errorf("redis ZADD ttl-index: %w", err)
	}

	values := map[string]interface{}{
		"task_id":          id,
		"filename":         filename,
		"disabled_workers": marshal(disabled),
		"password":         password,
		"sample_url":       sampleURL,
	}
	// Propagação W3C para os workers continuarem o trace do submit.
	if parent, state := tracing.TraceContextStrings(ctx); parent != "" {
		values["traceparent"] = parent
		if state != "" {
			values["tracestate"] = state
		}
	}
	if err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.keyStream(),
		MaxLen: r.streamMaxLen,
		Approx: true,
		Values: values,
	}).Err(); err != nil {
		return nil, fmt.Errorf("redis XADD stream: %w", err)
	}

	return &task, nil
}

func (r *taskRedisRepo) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	js, err := r.rdb.HGet(ctx, r.keyTask(taskID), "task").Result()
	if err == redis.Nil || js == "" {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET task: %w", err)
	}
	t, err := unmarshalTask(js)
	if err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return t, nil
}

func (r *taskRedisRepo) SampleURL(ctx context.Context, taskID string) (string, error) {
	url, err := r.rdb.HGet(ctx, r.keyTask(taskID), "sample_url").Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis HGET sample_url: %w", err)
	}
	return url, nil
}

// IssueSeed stores the opaque share handle with its own TTL and tracks it in
// the seeds index so the live gauge can count active seeds.
func (r *taskRedisRepo) IssueSeed(ctx context.Context, seed string, taskID string, validity time.Duration) error {
	if validity <= 0 {
		return fmt.Errorf("seed validity must be positive")
	}
	if err := r.rdb.SetEX(ctx, r.keySeed(seed), taskID, validity).Err(); err != nil {
		return fmt.Errorf("redis SETEX seed: %w", err)
	}
	expireAt := r.now().Add(validity)
	z := &redis.Z{Score: float64(expireAt.UTC().Unix()), Member: seed}
	if err := r.rdb.ZAdd(ctx, r.keySeedIndex(), z).Err(); err != nil {
		return fmt.Errorf("redis ZADD seed-index: %w", err)
	}
	metrics.SeedsIssuedTotal.Inc()
	return nil
}

func (r *taskRedisRepo) ResolveSeed(ctx context.Context, seed string) (string, error) {
	taskID, err := r.rdb.Get(ctx, r.keySeed(seed)).Result()
	if err == redis.Nil {
		return "", ErrSeedExpired
	}
	if err != nil {
		return "", fmt.Errorf("redis GET seed: %w", err)
	}
	return taskID, nil
}

// Reports reads the per-worker status hashes the analysis side writes. A
// worker with no hash yet reports WAITING; a worker the submitter disabled
// never gets a hash, so the caller is expected to overlay DISABLED itself.
func (r *taskRedisRepo) Reports(ctx context.Context, taskID string, workers []string) ([]domain.Report, error) {
	if len(workers) == 0 {
		return nil, nil
	}
	pipe := r.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(workers))
	for i, w := range workers {
		cmds[i] = pipe.HGet(ctx, r.keyReport(taskID, w), "status")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis pipeline reports: %w", err)
	}
	out := make([]domain.Report, 0, len(workers))
	for i, w := range workers {
		status, err := cmds[i].Result()
		if err == redis.Nil || status == "" {
			out = append(out, domain.Report{Worker: w, Status: domain.ReportWaiting})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis HGET report: %w", err)
		}
		out = append(out, domain.Report{Worker: w, Status: domain.ReportStatus(status)})
	}
	return out, nil
}

func (r *taskRedisRepo) StreamDepth(ctx context.Context) (int64, error) {
	n, err := r.rdb.XLen(ctx, r.keyStream()).Result()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("redis XLEN stream: %w", err)
	}
	return n, nil
}

func (r *taskRedisRepo) TrackedTasks(ctx context.Context) (int64, error) {
	n, err := r.rdb.ZCard(ctx, r.keyTTLIndex()).Result()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("redis ZCARD ttl-index: %w", err)
	}
	return n, nil
}

// Limpeza administrativa (sem custo no Get)
func (r *taskRedisRepo) CleanupExpired(ctx context.Context, limit int, before time.Time) (int, error) {
	if limit <= 0 {
		limit = 1000
	}
	maxTS := strconv.FormatInt(before.UTC().Unix(), 10)
	zrange := &redis.ZRangeBy{Min: "-inf", Max: maxTS, Offset: 0, Count: int64(limit)}

	ids, err := r.rdb.ZRangeByScore(ctx, r.keyTTLIndex(), zrange).Result()
	if err != nil && err != redis.Nil {
		return 0, err
	}

	// Seeds expiradas saem do índice junto; o valor em si expira sozinho.
	if err := r.rdb.ZRemRangeByScore(ctx, r.keySeedIndex(), "-inf", maxTS).Err(); err != nil && err != redis.Nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, nil
	}
	deleted := 0
	for _, id := range ids {
		if err := r.removeTaskFully(ctx, id); err == nil {
			deleted++
		}
	}
	if deleted > 0 {
		metrics.TasksCleanedTotal.Add(float64(deleted))
	}
	return deleted, nil
}
