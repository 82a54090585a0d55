package jobs

import (
	"context"
	"time"

	"github.com/fenilmodi00/stock-api/models"
	"github.com/fenilmodi00/stock-api/services"
	"github.com/sirupsen/logrus"
)

// MoversTaskName tags the movers task in the scheduler
const MoversTaskName = "movers-refresh"

var moverResources = map[models.CollectionName]string{
	models.CollectionGainers: services.ResourceBiggestGainers,
	models.CollectionLosers:  services.ResourceBiggestLosers,
}

// MoversRefreshJob refreshes the gainers and losers collections
type MoversRefreshJob struct {
	refresher *Refresher
}

func NewMoversRefreshJob(refresher *Refresher) *MoversRefreshJob {
	return &MoversRefreshJob{refresher: refresher}
}

// Run fetches gainers and losers independently. Fetch failures are absorbed;
// only a failure to build the request URLs is returned.
func (j *MoversRefreshJob) Run(ctx context.Context) error {
	startTime := time.Now()
	logrus.Info("Running Movers Refresh Job...")

	targets, err := j.refresher.resolve(moverResources, []models.CollectionName{models.CollectionGainers, models.CollectionLosers}, nil)
	if err != nil {
		return err
	}

	events := j.refresher.refreshAll(ctx, targets)

	refreshed := 0
	for _, event := range events {
		if event.Success {
			refreshed++
		}
	}
	logrus.Infof("Movers Refresh Job completed: %d/%d collections refreshed (took %v)",
		refreshed, len(events), time.Since(startTime))

	return nil
}

// Task wraps the job for the scheduler
func (j *MoversRefreshJob) Task(interval time.Duration) PeriodicTask {
	return PeriodicTask{
		Name:           MoversTaskName,
		Interval:       interval,
		RunImmediately: true,
		Work:           j.Run,
	}
}
