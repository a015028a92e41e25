package data

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/annual_review/app/console/internal/domain"
	"github.com/iWorld-y/annual_review/app/console/internal/repo"
)

const defaultListLimit = 100

// NewRunRepo 根据存储配置返回 SQL 或内存实现
func NewRunRepo(data *Data, logger log.Logger) repo.RunRepo {
	if data == nil || data.db == nil {
		return &memoryRunRepo{}
	}
	return &runRepo{data: data, log: log.NewHelper(logger)}
}

type runRepo struct {
	data *Data
	log  *log.Helper
}

func (r *runRepo) SaveRun(ctx context.Context, run *domain.Run) error {
	query := r.data.rebind(`
		INSERT INTO runs (name, input_dir, run_dir, exit_code, reports, failures, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	return r.data.db.QueryRowContext(ctx, query,
		run.Name, run.InputDir, run.RunDir, run.ExitCode, run.Reports, run.Failures,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
	).Scan(&run.ID)
}

func (r *runRepo) ListRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := r.data.rebind(`
		SELECT id, name, input_dir, run_dir, exit_code, reports, failures, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`)
	rows, err := r.data.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		var (
			run             domain.Run
			started, finish int64
		)
		if err := rows.Scan(&run.ID, &run.Name, &run.InputDir, &run.RunDir, &run.ExitCode,
			&run.Reports, &run.Failures, &started, &finish); err != nil {
			return nil, err
		}
		run.StartedAt = time.UnixMilli(started)
		run.FinishedAt = time.UnixMilli(finish)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// memoryRunRepo 未配置数据库时使用，进程退出即丢失
type memoryRunRepo struct {
	mu     sync.Mutex
	nextID int64
	runs   []domain.Run
}

func (r *memoryRunRepo) SaveRun(_ context.Context, run *domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	run.ID = r.nextID
	r.runs = append(r.runs, *run)
	return nil
}

func (r *memoryRunRepo) ListRuns(_ context.Context, limit int) ([]*domain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Run, 0, len(r.runs))
	for i := range r.runs {
		run := r.runs[i]
		out = append(out, &run)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
