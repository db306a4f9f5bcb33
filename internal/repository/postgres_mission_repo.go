package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/vestgate/internal/model"
)

// PostgresMissionRepo はPostgreSQLを使用したミッションリポジトリ。
// タスク完了とポイント加算を同一トランザクションで行う。
type PostgresMissionRepo struct {
	db *sql.DB
}

// NewPostgresMissionRepo はPostgresMissionRepoを生成する。
func NewPostgresMissionRepo(db *sql.DB) *PostgresMissionRepo {
	return &PostgresMissionRepo{db: db}
}

// GetTask は指定ユーザー・種別のタスクを取得する。未登録の場合はnilを返す。
func (r *PostgresMissionRepo) GetTask(ctx context.Context, userID string, kind model.TaskKind) (*model.Task, error) {
	task := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, kind, completed, started_at, duration_seconds, completed_at
		 FROM mission_tasks
		 WHERE user_id = $1 AND kind = $2`,
		userID, string(kind),
	).Scan(&task.UserID, &task.Kind, &task.Completed, &task.StartedAt, &task.DurationSeconds, &task.CompletedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// ListTasks は指定ユーザーの全タスクを返す。
func (r *PostgresMissionRepo) ListTasks(ctx context.Context, userID string) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, kind, completed, started_at, duration_seconds, completed_at
		 FROM mission_tasks
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task := &model.Task{}
		if err := rows.Scan(&task.UserID, &task.Kind, &task.Completed, &task.StartedAt, &task.DurationSeconds, &task.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// StartTask はタスクの開始時刻を記録する。
// COALESCEにより最初の開始時刻が保持されるため、再入しても計測はリセットされない。
// 完了済み行はWHEREガードにより変更されない。
func (r *PostgresMissionRepo) StartTask(ctx context.Context, userID string, kind model.TaskKind, startedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mission_tasks (user_id, kind, started_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, kind) DO UPDATE
		 SET started_at = COALESCE(mission_tasks.started_at, EXCLUDED.started_at)
		 WHERE mission_tasks.completed = FALSE`,
		userID, string(kind), startedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to start task: %w", err)
	}
	return nil
}

// CompleteTask はタスクを完了にし、ガードが効いた場合のみ台帳にrewardを加算する。
// completed = false のガードによりユーザーとタスク種別ごとに高々1回だけ加算される。
func (r *PostgresMissionRepo) CompleteTask(ctx context.Context, userID string, kind model.TaskKind, completedAt time.Time, durationSeconds, reward int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO mission_tasks (user_id, kind, completed, duration_seconds, completed_at)
		 VALUES ($1, $2, TRUE, $3, $4)
		 ON CONFLICT (user_id, kind) DO UPDATE
		 SET completed = TRUE,
		     duration_seconds = EXCLUDED.duration_seconds,
		     completed_at = EXCLUDED.completed_at
		 WHERE mission_tasks.completed = FALSE`,
		userID, string(kind), durationSeconds, completedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// すでに完了済み: ポイントもdurationも変更しない
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO mission_ledgers (user_id, points, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE
		 SET points = mission_ledgers.points + EXCLUDED.points,
		     updated_at = now()`,
		userID, reward,
	)
	if err != nil {
		return false, fmt.Errorf("failed to award points: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// GetLedger は指定ユーザーのポイント台帳を返す。未登録の場合はポイント0の台帳を返す。
func (r *PostgresMissionRepo) GetLedger(ctx context.Context, userID string) (*model.Ledger, error) {
	ledger := &model.Ledger{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT points, updated_at FROM mission_ledgers WHERE user_id = $1`,
		userID,
	).Scan(&ledger.Points, &ledger.UpdatedAt)

	if err == sql.ErrNoRows {
		return &model.Ledger{UserID: userID, Points: 0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}

	return ledger, nil
}

// compile-time interface check
var _ MissionRepository = (*PostgresMissionRepo)(nil)
