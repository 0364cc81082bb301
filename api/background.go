package api

import (
	"github.com/robfig/cron/v3"

	"falcon-hq/core/netguard"
	"falcon-hq/core/utils"
)

// sweeper runs the periodic memory-hygiene jobs. Correctness never depends
// on it; stale tracking entries are also reset lazily on access.
type sweeper struct {
	cron   *cron.Cron
	logger *utils.Logger
}

func newSweeper(tracker *netguard.Tracker, logger *utils.Logger) *sweeper {
	c := cron.New()
	_, err := c.AddFunc("@every 1m", tracker.Sweep)
	if err != nil && logger != nil {
		logger.Errorf("schedule tracker sweep: %v", err)
	}
	return &sweeper{cron: c, logger: logger}
}

func (s *sweeper) Start() {
	s.cron.Start()
}

func (s *sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
