package repo

import (
	"context"

	"github.com/iWorld-y/annual_review/app/console/internal/domain"
)

// RunRepo 运行历史仓库接口
type RunRepo interface {
	// SaveRun 保存一次运行记录并回填 ID
	SaveRun(ctx context.Context, run *domain.Run) error
	// ListRuns 按开始时间倒序列出最近的运行
	ListRuns(ctx context.Context, limit int) ([]*domain.Run, error)
}
