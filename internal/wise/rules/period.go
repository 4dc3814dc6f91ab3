package rules

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// KindExpirationDate tags the ExpirationDate rule.
	KindExpirationDate = "expiration_date"
	// KindWeightForPeriod tags the WeightForPeriod rule.
	KindWeightForPeriod = "weight_for_period"
)

// ExpirationDate rejects voteorders submitted at or after Date.
type ExpirationDate struct {
	Date time.Time `json:"date"`
}

// Kind returns KindExpirationDate.
func (r *ExpirationDate) Kind() string { return KindExpirationDate }

func (r *ExpirationDate) check() error {
	if r.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

// Validate fails voteorders submitted at or after the expiration date.
func (r *ExpirationDate) Validate(_ context.Context, in Input, _ Context) error {
	if !in.Voteorder.Timestamp.Before(r.Date) {
		return fail(KindExpirationDate, "ruleset expired at %s", r.Date.UTC().Format(time.RFC3339))
	}
	return nil
}

// PeriodUnit is the unit of WeightForPeriod.Period.
type PeriodUnit string

const (
	UnitDay    PeriodUnit = "day"
	UnitHour   PeriodUnit = "hour"
	UnitMinute PeriodUnit = "minute"
	UnitSecond PeriodUnit = "second"
)

func (u PeriodUnit) duration() (time.Duration, bool) {
	switch u {
	case UnitDay:
		return 24 * time.Hour, true
	case UnitHour:
		return time.Hour, true
	case UnitMinute:
		return time.Minute, true
	case UnitSecond:
		return time.Second, true
	}
	return 0, false
}

// WeightForPeriod caps the absolute weight the delegator casts for one voter
// within a sliding period ending at the voteorder.
type WeightForPeriod struct {
	Period float64    `json:"period"`
	Unit   PeriodUnit `json:"unit"`
	Weight float64    `json:"weight"`
}

// Kind returns KindWeightForPeriod.
func (r *WeightForPeriod) Kind() string { return KindWeightForPeriod }

func (r *WeightForPeriod) check() error {
	if _, ok := r.Unit.duration(); !ok {
		return fmt.Errorf("unsupported unit %q", r.Unit)
	}
	if r.Period <= 0 {
		return fmt.Errorf("period must be positive, got %v", r.Period)
	}
	return nil
}

// Window returns the period length.
func (r *WeightForPeriod) Window() time.Duration {
	unit, _ := r.Unit.duration()
	return time.Duration(r.Period * float64(unit))
}

// Validate fails when the voter would exceed the weight allowed in the window.
func (r *WeightForPeriod) Validate(ctx context.Context, in Input, rc Context) error {
	order := in.Voteorder
	since := order.Timestamp.Add(-r.Window())
	cast, err := rc.WeightCast(ctx, order.Delegator, order.Voter, since, order.Moment)
	if err != nil {
		return fmt.Errorf("weight cast for %s: %w", order.Voter, err)
	}
	if total := cast + math.Abs(order.Weight); total > r.Weight {
		return fail(KindWeightForPeriod, "weight %v in the last %v %s exceeds %v", total, r.Period, r.Unit, r.Weight)
	}
	return nil
}
