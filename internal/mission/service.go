// Package mission はミッションタスクの状態遷移とポイント付与を提供する。
// タスクは Idle → Started → Completed の一方向にのみ遷移し、
// 報酬はタスク種別ごとに最大1回だけ付与される。
package mission

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/vestgate/internal/model"
	"github.com/hitoshi/vestgate/internal/repository"
)

// MetricsRecorder はミッション関連メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordMissionCompletion(kind string)
	RecordPointsAwarded(points int)
}

// Service はミッションに関するビジネスロジックを提供する。
type Service struct {
	repo    repository.MissionRepository
	metrics MetricsRecorder

	// now はテストで時刻を固定するために差し替え可能にしている
	now func() time.Time

	surveyMu     sync.Mutex
	surveyStates map[string]*surveyState
}

// NewService はServiceを生成する。
func NewService(repo repository.MissionRepository, metrics MetricsRecorder) *Service {
	return &Service{
		repo:         repo,
		metrics:      metrics,
		now:          time.Now,
		surveyStates: make(map[string]*surveyState),
	}
}

// StartTask はタスクを開始状態にする。
// すでに開始済みの場合は最初の開始時刻を保持したまま何も変更しない（冪等）。
// 完了済みタスクの再開始も状態を巻き戻さない。
func (s *Service) StartTask(ctx context.Context, userID, kind string) (*model.Task, error) {
	taskKind, ok := model.ParseTaskKind(kind)
	if !ok {
		return nil, model.NewTaskNotFoundError(kind)
	}

	if err := s.repo.StartTask(ctx, userID, taskKind, s.now()); err != nil {
		return nil, fmt.Errorf("failed to start task: %w", err)
	}

	task, err := s.repo.GetTask(ctx, userID, taskKind)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	slog.Info("mission task started",
		slog.String("user_id", userID),
		slog.String("kind", kind),
	)
	return task, nil
}

// CompleteTask はタスクを完了状態にし、報酬ポイントを台帳に加算する。
// 未開始のまま完了した場合、所要時間は0秒として記録される。
// すでに完了済みの場合は状態もポイントも変更しない（冪等）。
// 付与の重複排除は永続化層のトランザクションで保証される。
func (s *Service) CompleteTask(ctx context.Context, userID, kind string) (*model.Task, bool, error) {
	taskKind, ok := model.ParseTaskKind(kind)
	if !ok {
		return nil, false, model.NewTaskNotFoundError(kind)
	}

	existing, err := s.repo.GetTask(ctx, userID, taskKind)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get task: %w", err)
	}

	completedAt := s.now()
	durationSeconds := 0
	if existing != nil && existing.StartedAt != nil && completedAt.After(*existing.StartedAt) {
		durationSeconds = int(completedAt.Sub(*existing.StartedAt).Seconds())
	}

	reward := model.RewardPoints(taskKind)
	awarded, err := s.repo.CompleteTask(ctx, userID, taskKind, completedAt, durationSeconds, reward)
	if err != nil {
		return nil, false, fmt.Errorf("failed to complete task: %w", err)
	}

	if awarded {
		s.metrics.RecordMissionCompletion(kind)
		s.metrics.RecordPointsAwarded(reward)
		slog.Info("mission task completed",
			slog.String("user_id", userID),
			slog.String("kind", kind),
			slog.Int("duration_seconds", durationSeconds),
			slog.Int("reward", reward),
		)
	}

	task, err := s.repo.GetTask(ctx, userID, taskKind)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get task: %w", err)
	}
	return task, awarded, nil
}

// Task は指定種別のタスク状態を返す。
// 一度も触れられていない種別はIdle状態のタスクとして返す。
func (s *Service) Task(ctx context.Context, userID, kind string) (*model.Task, error) {
	taskKind, ok := model.ParseTaskKind(kind)
	if !ok {
		return nil, model.NewTaskNotFoundError(kind)
	}

	task, err := s.repo.GetTask(ctx, userID, taskKind)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return &model.Task{UserID: userID, Kind: taskKind}, nil
	}
	return task, nil
}

// ListTasks は全タスク種別の状態を返す。
// 一度も触れられていない種別はIdle状態のタスクとして補完される。
func (s *Service) ListTasks(ctx context.Context, userID string) ([]*model.Task, error) {
	stored, err := s.repo.ListTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	byKind := make(map[model.TaskKind]*model.Task, len(stored))
	for _, task := range stored {
		byKind[task.Kind] = task
	}

	tasks := make([]*model.Task, 0, len(model.AllTaskKinds()))
	for _, kind := range model.AllTaskKinds() {
		if task, ok := byKind[kind]; ok {
			tasks = append(tasks, task)
			continue
		}
		tasks = append(tasks, &model.Task{UserID: userID, Kind: kind})
	}
	return tasks, nil
}

// Points は現在のポイント残高を返す。
func (s *Service) Points(ctx context.Context, userID string) (*model.Ledger, error) {
	ledger, err := s.repo.GetLedger(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return ledger, nil
}
