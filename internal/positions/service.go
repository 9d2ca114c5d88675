package positions

import (
	"context"
	"fmt"

	"github.com/foliolabs/foliosync/internal/client"
	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/notify"
)

// Service fetches position snapshots and keeps pending prices reconciled.
type Service struct {
	api        *client.APIClient
	reconciler *Reconciler
}

func NewService(api *client.APIClient, center *notify.Center) *Service {
	s := &Service{api: api}
	s.reconciler = NewReconciler(s.GetPositions, center)
	return s
}

// Reconciler exposes the price reconciliation loop for configuration.
func (s *Service) Reconciler() *Reconciler {
	return s.reconciler
}

// GetPositions fetches the position list for the given filters without
// touching the reconciliation loop.
func (s *Service) GetPositions(ctx context.Context, filters models.PositionFilters) ([]models.Position, error) {
	params := make(map[string]string)
	if filters.Account != "" {
		params["account"] = filters.Account
	}
	if filters.Date != "" {
		params["date"] = filters.Date
	}

	endpoint := client.BuildURLWithParams("/positions", params)

	var response models.PositionsResponse
	if err := s.api.Get(endpoint, &response); err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	return response.Result, nil
}

// Refresh cancels any reconciliation cycle in flight, fetches the list and
// re-enters the reconciliation decision point with the result.
func (s *Service) Refresh(ctx context.Context, filters models.PositionFilters) ([]models.Position, error) {
	s.reconciler.Cancel()

	list, err := s.GetPositions(ctx, filters)
	if err != nil {
		return nil, err
	}

	s.reconciler.Reconcile(ctx, filters, list)
	return list, nil
}
