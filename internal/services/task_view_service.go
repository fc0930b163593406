package services

import (
	"context"

	"github.com/osvaldoandrade/scanq/internal/metrics"
	"github.com/osvaldoandrade/scanq/internal/repository"
	"github.com/osvaldoandrade/scanq/pkg/domain"

	"github.com/osvaldoandrade/scanq/pkg/catalog"
)

type TaskViewService interface {
	Get(ctx context.Context, taskID string) (*domain.TaskView, error)
	BySeed(ctx context.Context, taskID string, seed string) (*domain.TaskView, error)
}

type taskViewService struct {
	repo repository.TaskRepository
	cat  *catalog.Catalog
}

func NewTaskViewService(repo repository.TaskRepository, cat *catalog.Catalog) TaskViewService {
	return &taskViewService{repo: repo, cat: cat}
}

func (s *taskViewService) Get(ctx context.Context, taskID string) (*domain.TaskView, error) {
	view, err := s.build(ctx, taskID)
	if err != nil {
		return nil, err
	}
	metrics.TaskViewsTotal.WithLabelValues("direct").Inc()
	return view, nil
}

// BySeed grants the view without bearer auth when the seed resolves to the
// requested task. A seed pointing elsewhere reads as expired so the response
// never reveals whether the task exists.
func (s *taskViewService) BySeed(ctx context.Context, taskID string, seed string) (*domain.TaskView, error) {
	resolved, err := s.repo.ResolveSeed(ctx, seed)
	if err != nil {
		return nil, err
	}
	if resolved != taskID {
		return nil, repository.ErrSeedExpired
	}
	view, err := s.build(ctx, taskID)
	if err != nil {
		return nil, err
	}
	metrics.TaskViewsTotal.WithLabelValues("seed").Inc()
	return view, nil
}

func (s *taskViewService) build(ctx context.Context, taskID string) (*domain.TaskView, error) {
	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	disabled := make(map[string]bool, len(task.DisabledWorkers))
	for _, n := range task.DisabledWorkers {
		disabled[n] = true
	}

	selectable := s.cat.SelectableWorkers()
	active := make([]string, 0, len(selectable))
	for _, w := range selectable {
		if !disabled[w.Name] {
			active = append(active, w.Name)
		}
	}
	fetched, err := s.repo.Reports(ctx, taskID, active)
	if err != nil {
		return nil, err
	}
	byWorker := make(map[string]domain.ReportStatus, len(fetched))
	for _, r := range fetched {
		byWorker[r.Worker] = r.Status
	}

	// Catalog order; disabled workers never touch Redis.
	reports := make([]domain.Report, 0, len(selectable))
	for _, w := range selectable {
		if disabled[w.Name] {
			reports = append(reports, domain.Report{Worker: w.Name, Status: domain.ReportDisabled})
			continue
		}
		reports = append(reports, domain.Report{Worker: w.Name, Status: byWorker[w.Name]})
	}

	view := &domain.TaskView{
		Task:    *task,
		Reports: reports,
		Overall: domain.WorstStatus(reports),
	}
	view.Task.Status = deriveStatus(reports)
	return view, nil
}

// deriveStatus rolls the per-worker reports into the task lifecycle status:
// DONE once every report is terminal, ANALYZING as soon as any worker moved,
// SUBMITTED otherwise. DISABLED entries count as terminal but not as
// movement, so a partially disabled task still reads SUBMITTED until a
// worker picks it up.
func deriveStatus(reports []domain.Report) domain.TaskStatus {
	if len(reports) == 0 {
		return domain.StatusSubmitted
	}
	allTerminal := true
	anyStarted := false
	for _, r := range reports {
		if !r.Status.Terminal() {
			allTerminal = false
		}
		if r.Status != domain.ReportWaiting && r.Status != domain.ReportDisabled {
			anyStarted = true
		}
	}
	if allTerminal {
		return domain.StatusDone
	}
	if anyStarted {
		return domain.StatusAnalyzing
	}
	return domain.StatusSubmitted
}
