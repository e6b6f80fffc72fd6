package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/NITsush45/enter-bank/internal/config"
	"github.com/NITsush45/enter-bank/internal/services"
)

// Scheduler triggers the three time-driven jobs: daily interest accrual,
// interest payout on its configured cadence, and the due-payment batch run.
// The jobs themselves are plain synchronous calls; cron only supplies the
// cadence.
type Scheduler struct {
	cron *cron.Cron
}

func New(interestCfg *config.InterestConfig, scheduleCfg *config.ScheduleConfig,
	interest *services.InterestService, runner *services.PaymentRunner) (*Scheduler, error) {

	loc, err := time.LoadLocation(interestCfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone %q: %w", interestCfg.Timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(interestCfg.AccrualSpec, func() {
		if err := interest.AccrueDailyInterest(context.Background()); err != nil {
			log.Printf("[SCHEDULER] interest accrual run failed: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("register accrual job: %w", err)
	}

	if _, err := c.AddFunc(interestCfg.PayoutSpec, func() {
		if err := interest.PayoutInterest(context.Background()); err != nil {
			log.Printf("[SCHEDULER] interest payout run failed: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("register payout job: %w", err)
	}

	if _, err := c.AddFunc(scheduleCfg.RunnerSpec, func() {
		runner.ExecuteDuePayments(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("register due-payment job: %w", err)
	}

	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("Scheduler started")
}

// Stop waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}
