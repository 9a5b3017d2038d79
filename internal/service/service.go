package service

import (
	"go.uber.org/zap"

	"acadflow/backend/config"
	"acadflow/backend/internal/repository"
	"acadflow/backend/pkg/jwt"
	"acadflow/backend/pkg/mailer"
	"acadflow/backend/pkg/redis"
	"acadflow/backend/pkg/ttd"
)

// Mailer is the slice of pkg/mailer the services need; tests substitute a
// recording fake.
type Mailer interface {
	Send(msg *mailer.Message) (string, error)
	IsConfigured() bool
}

// Service aggregates all service interfaces.
type Service struct {
	Auth       AuthService
	Semester   SemesterService
	Course     CourseService
	Form       FormService
	Allocation AllocationService
	Push       PushService
	Export     ExportService
}

// NewService wires the service layer.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	mail Mailer,
	ttdClient ttd.Client,
	logger *zap.Logger,
) *Service {
	allocation := NewAllocationService(repo, logger)
	return &Service{
		Auth:       NewAuthService(repo, jwtMgr, rdb, logger),
		Semester:   NewSemesterService(cfg, repo, mail, logger),
		Course:     NewCourseService(repo, logger),
		Form:       NewFormService(repo, logger),
		Allocation: allocation,
		Push:       NewPushService(repo, ttdClient, logger),
		Export:     NewExportService(allocation, logger),
	}
}
