package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/annual_review/app/console/internal/data"
	"github.com/iWorld-y/annual_review/app/console/internal/service"
	"github.com/iWorld-y/annual_review/app/console/internal/usecase"
)

// ProviderSet 是评审网页端的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewReviewEngine,

	// Data providers
	data.NewData,
	data.NewRunRepo,

	// UseCase providers
	usecase.NewLayout,
	usecase.NewFileUseCase,
	usecase.NewJobUseCase,

	// Service providers
	service.NewReviewService,
)
