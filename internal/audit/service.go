// AngelaMos | 2026
// service.go

package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/policy"
)

// Recorder is what moderation services depend on. Record never fails the
// caller: a mutation that already succeeded stays successful.
type Recorder interface {
	Record(ctx context.Context, actorID string, details Details)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Record(ctx context.Context, actorID string, details Details) {
	raw, err := json.Marshal(details)
	if err != nil {
		s.logger.WarnContext(ctx, "audit marshal failed",
			"action", details.Action(),
			"error", err,
		)
		return
	}

	entry := &Entry{
		ID:      uuid.New().String(),
		Action:  details.Action(),
		Details: raw,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "audit write failed",
			"action", entry.Action,
			"actor_id", actorID,
			"error", err,
		)
	}
}

func (s *Service) List(
	ctx context.Context,
	page core.PageParams,
	action Action,
) ([]Entry, int, error) {
	if action != "" && !IsKnownAction(action) {
		return nil, 0, core.InvalidInputf("unknown audit action %q", action)
	}

	return s.repo.List(ctx, ListParams{
		PageParams: page,
		Action:     action,
		ActorRoles: policy.Staff,
	})
}

// Discard drops every entry. Handy for tests and tools that run without a log.
type Discard struct{}

func (Discard) Record(context.Context, string, Details) {}
