package config

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// InterestConfig drives the interest engine's cron cadence. Payout cadence is
// deliberately a deployment decision, not hardcoded; the default pays out on
// the 1st of every month.
type InterestConfig struct {
	AccrualSpec string
	PayoutSpec  string
	Timezone    string
}

// ScheduleConfig drives the due-payment batch runner.
type ScheduleConfig struct {
	RunnerSpec string
}

// GiftConfig is the fixed one-time welcome gift credited on claim.
type GiftConfig struct {
	Amount decimal.Decimal
}

func LoadInterestConfig() *InterestConfig {
	viper.SetDefault("interest.accrual_spec", "0 2 * * *")
	viper.SetDefault("interest.payout_spec", "30 2 1 * *")
	viper.SetDefault("interest.timezone", "UTC")

	return &InterestConfig{
		AccrualSpec: viper.GetString("interest.accrual_spec"),
		PayoutSpec:  viper.GetString("interest.payout_spec"),
		Timezone:    viper.GetString("interest.timezone"),
	}
}

func LoadScheduleConfig() *ScheduleConfig {
	viper.SetDefault("schedule.runner_spec", "0 3 * * *")

	return &ScheduleConfig{
		RunnerSpec: viper.GetString("schedule.runner_spec"),
	}
}

func LoadGiftConfig() *GiftConfig {
	viper.SetDefault("gift.amount", "100.00")

	amount, err := decimal.NewFromString(viper.GetString("gift.amount"))
	if err != nil {
		amount = decimal.RequireFromString("100.00")
	}
	return &GiftConfig{Amount: amount}
}
