package indices

import (
	"context"
	"time"

	"greenlight/indices/indexlog"

	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	indexLogRecoveryLimiter = rate.NewLimiter(rate.Every(30*time.Second), 1)
)

func StartCron() {
	crontab := cron.New(cron.WithSeconds())
	crontab.AddFunc("0 0 23 * * ?", func() {
		if err := IndicesFullSyncFunc(); err != nil {
			logrus.Warnf("nightly index full sync: %v", err)
		}
	})
	crontab.Start()
}

// StartIndexLogRecovery re-indexes sources whose index logs are still pending,
// paced by a rate limiter so recovery never floods the search cluster.
func StartIndexLogRecovery(ctx context.Context) {
	go func() {
		for {
			if err := indexLogRecoveryLimiter.Wait(ctx); err != nil {
				return
			}

			logs, err := indexlog.LoadPendingIndexLogFunc(1, 10)
			if err != nil {
				logrus.Warnf("index log recovery: %v", err)
				continue
			}
			if len(logs) == 0 {
				continue
			}

			for _, logRecord := range logs {
				if err := indexWorkflow(logRecord.SourceId); err != nil {
					logrus.Warnf("index log recovery: index workflow %d: %v", logRecord.SourceId, err)
					continue
				}
				if err := indexlog.FinishIndexLogFunc(logRecord.ID); err != nil {
					logrus.Warnf("index log recovery: finish index log %d: %v", logRecord.ID, err)
				}
			}
		}
	}()
}
