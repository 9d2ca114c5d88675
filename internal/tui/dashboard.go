package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foliolabs/foliosync/internal/logger"
	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/services"
)

// RunDashboard runs the interactive dashboard: the statement watch loop, the
// notification feed and the price reconciliation loop all push updates into
// the bubbletea program until the user quits.
func RunDashboard(svc *services.DashboardService, filters models.PositionFilters) error {
	program := tea.NewProgram(NewModel(), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(svc.Context())
	defer cancel()

	go func() {
		sub := svc.Notifications().Subscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub:
				program.Send(NotificationsChanged{Entries: svc.Notifications().List()})
			}
		}
	}()

	go func() {
		err := svc.Statements().Watch(ctx, func(list []models.Statement) {
			program.Send(StatementsRefreshed{
				Statements: list,
				BusyIDs:    svc.Coordinator().Tracker().BusyIDs(),
			})
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("Statement watch loop stopped: %v", err)
		}
	}()

	svc.Positions().Reconciler().SetOnResult(func(list []models.Position) {
		program.Send(PositionsRefreshed{Positions: list})
	})

	go func() {
		list, err := svc.RefreshPositions(filters)
		if err != nil {
			logger.Error("Failed to refresh positions: %v", err)
			return
		}
		program.Send(PositionsRefreshed{Positions: list})
	}()

	_, err := program.Run()
	return err
}
