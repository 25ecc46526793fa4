package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

// IPService exposes the sign-up address log to admins.
type IPService struct {
	access
	ips    repository.IPRepository
	logger *slog.Logger
}

func NewIPService(users repository.UserRepository, ips repository.IPRepository, logger *slog.Logger) *IPService {
	return &IPService{access: access{users: users}, ips: ips, logger: logger}
}

func (s *IPService) List(ctx context.Context, actorID string, limit int) ([]model.IPRecord, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	recs, err := s.ips.List(ctx, repository.ListOptions{Limit: normalizeLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("service/ips: listing: %w", err)
	}
	return recs, nil
}

func (s *IPService) Delete(ctx context.Context, actorID, id string) error {
	actor, err := s.requireAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.ips.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/ips: deleting %s: %w", id, err)
	}
	s.logger.Info("ip record deleted", slog.String("by", actor.UID), slog.String("recordID", id))
	return nil
}
