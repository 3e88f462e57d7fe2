package services

import (
	"context"
	"errors"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/config"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/sirupsen/logrus"
)

// SchedulerService holds the jobs cron triggers. Each job checks its own flag
// so it can be switched off without a redeploy.
type SchedulerService struct {
	cfg      *config.Config
	grouping *RouteGroupingService
	dispatch *DispatchService
	notify   *NotificationService
}

func NewSchedulerService(
	cfg *config.Config,
	grouping *RouteGroupingService,
	dispatch *DispatchService,
	notify *NotificationService,
) *SchedulerService {
	return &SchedulerService{cfg: cfg, grouping: grouping, dispatch: dispatch, notify: notify}
}

// RunNightlyAutoGroup buckets newly deposited orders into draft routes.
func (s *SchedulerService) RunNightlyAutoGroup(ctx context.Context) error {
	if !s.cfg.LDFlag_AutoGroupNightly {
		utils.Logger.Debug("Nightly auto-grouping disabled, skipping")
		return nil
	}
	utils.Logger.Info("Running nightly auto-grouping...")

	res, err := s.grouping.AutoGroup(ctx)
	if err != nil {
		return err
	}
	utils.Logger.WithFields(logrus.Fields{
		"eligible":        res.Eligible,
		"routes_created":  res.RoutesCreated,
		"orders_assigned": res.OrdersAssigned,
		"failed_groups":   res.Failed,
	}).Info("Nightly auto-grouping finished")
	return nil
}

// RunMorningNotify sends today's run sheets to operators.
func (s *SchedulerService) RunMorningNotify(ctx context.Context) error {
	if !s.cfg.LDFlag_NotifyRunSheets {
		utils.Logger.Debug("Run sheet notifications disabled, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, constants.NotifyRequestTimeout)
	defer cancel()

	today := s.dispatch.Today()
	resp, err := s.notify.NotifyRunSheets(ctx, today)
	if errors.Is(err, utils.ErrServiceNotConfigured) {
		utils.Logger.WithError(err).Warn("Run sheet notifications enabled but no channel is configured")
		return nil
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range resp.Results {
		if r.Error != "" {
			failed++
		}
	}
	utils.Logger.WithFields(logrus.Fields{
		"date":   utils.FormatISODate(today),
		"routes": len(resp.Results),
		"failed": failed,
	}).Info("Morning run sheet notifications sent")
	return nil
}
