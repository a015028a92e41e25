package service

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/annual_review/app/console/internal/domain"
	"github.com/iWorld-y/annual_review/app/console/internal/repo"
	"github.com/iWorld-y/annual_review/app/console/internal/usecase"
)

type PathReq struct {
	Path string `json:"path"`
}

type UploadReq struct {
	Department string
	Files      []domain.UploadFile
}

type UploadReply struct {
	Saved      []string `json:"saved"`
	UploadRoot string   `json:"upload_root"`
}

type DeleteReply struct {
	Deleted string `json:"deleted"`
}

type MkdirReply struct {
	Created string `json:"created"`
}

type ListRunsReq struct {
	Limit int `json:"limit"`
}

type RunView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	InputDir   string `json:"input_dir"`
	RunDir     string `json:"run_dir"`
	ExitCode   int    `json:"exit_code"`
	Reports    int    `json:"reports"`
	Failures   int    `json:"failures"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

type ListRunsReply struct {
	Runs []*RunView `json:"runs"`
}

// ReviewService 评审网页端服务
type ReviewService struct {
	files *usecase.FileUseCase
	jobs  *usecase.JobUseCase
	runs  repo.RunRepo
	log   *log.Helper
}

func NewReviewService(files *usecase.FileUseCase, jobs *usecase.JobUseCase, runs repo.RunRepo, logger log.Logger) *ReviewService {
	return &ReviewService{
		files: files,
		jobs:  jobs,
		runs:  runs,
		log:   log.NewHelper(logger),
	}
}

func (s *ReviewService) Upload(_ context.Context, req *UploadReq) (*UploadReply, error) {
	saved, err := s.files.Upload(req.Department, req.Files)
	if err != nil {
		return nil, err
	}
	return &UploadReply{Saved: saved, UploadRoot: s.files.UploadRoot()}, nil
}

func (s *ReviewService) Tree(context.Context, *struct{}) (*domain.FileNode, error) {
	return s.files.Tree(), nil
}

func (s *ReviewService) Delete(_ context.Context, req *PathReq) (*DeleteReply, error) {
	if err := s.files.Delete(req.Path); err != nil {
		return nil, err
	}
	return &DeleteReply{Deleted: req.Path}, nil
}

func (s *ReviewService) Mkdir(_ context.Context, req *PathReq) (*MkdirReply, error) {
	if err := s.files.Mkdir(req.Path); err != nil {
		return nil, err
	}
	return &MkdirReply{Created: req.Path}, nil
}

// Run 同步执行，请求超时不影响任务本身
func (s *ReviewService) Run(ctx context.Context, req *domain.RunRequest) (*domain.RunResult, error) {
	res, err := s.jobs.Run(context.WithoutCancel(ctx), req)
	if err != nil {
		return nil, runFailed(err)
	}
	return res, nil
}

// Stream 返回事件通道；ctx 结束后不再投递事件
func (s *ReviewService) Stream(ctx context.Context, req *domain.RunRequest) <-chan domain.Event {
	return s.jobs.Stream(ctx, req)
}

// Resolve 返回可下载文件的绝对路径
func (s *ReviewService) Resolve(path string) (string, error) {
	return s.files.Resolve(path)
}

func (s *ReviewService) ListRuns(ctx context.Context, req *ListRunsReq) (*ListRunsReply, error) {
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}
	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	list := make([]*RunView, 0, len(runs))
	for _, r := range runs {
		list = append(list, &RunView{
			ID:         r.ID,
			Name:       r.Name,
			InputDir:   r.InputDir,
			RunDir:     r.RunDir,
			ExitCode:   r.ExitCode,
			Reports:    r.Reports,
			Failures:   r.Failures,
			StartedAt:  r.StartedAt.Format(time.DateTime),
			FinishedAt: r.FinishedAt.Format(time.DateTime),
		})
	}
	return &ListRunsReply{Runs: list}, nil
}

// runFailed 非 kratos 错误统一包装为 RUN_FAILED
func runFailed(err error) error {
	if se := new(errors.Error); errors.As(err, &se) {
		return se
	}
	return errors.InternalServer("RUN_FAILED", err.Error())
}
