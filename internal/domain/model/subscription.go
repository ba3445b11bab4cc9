package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusTrialing  SubscriptionStatus = "trialing"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid    SubscriptionStatus = "unpaid"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// subscriptionTransitions lists the allowed next states for each state.
// cancelled has no exits.
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusTrialing: {SubscriptionStatusActive, SubscriptionStatusPaused, SubscriptionStatusPastDue, SubscriptionStatusCancelled},
	SubscriptionStatusActive:   {SubscriptionStatusPaused, SubscriptionStatusPastDue, SubscriptionStatusCancelled},
	SubscriptionStatusPaused:   {SubscriptionStatusActive, SubscriptionStatusCancelled},
	SubscriptionStatusPastDue:  {SubscriptionStatusActive, SubscriptionStatusUnpaid, SubscriptionStatusCancelled},
	SubscriptionStatusUnpaid:   {SubscriptionStatusActive, SubscriptionStatusCancelled},
}

func (s SubscriptionStatus) Valid() bool {
	if s == SubscriptionStatusCancelled {
		return true
	}
	_, ok := subscriptionTransitions[s]
	return ok
}

func (s SubscriptionStatus) IsTerminal() bool { return s == SubscriptionStatusCancelled }

// CanTransitionTo reports whether s may move to next. Staying in the same
// state is always allowed.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type BillingInterval string

const (
	BillingIntervalMonthly   BillingInterval = "monthly"
	BillingIntervalQuarterly BillingInterval = "quarterly"
	BillingIntervalAnnually  BillingInterval = "annually"
)

// Months is the length of one interval in calendar months, 0 if unknown.
func (i BillingInterval) Months() int {
	switch i {
	case BillingIntervalMonthly:
		return 1
	case BillingIntervalQuarterly:
		return 3
	case BillingIntervalAnnually:
		return 12
	}
	return 0
}

type Discount struct {
	PercentOff int   `json:"percent_off,omitempty"` // 0..100
	AmountOff  int64 `json:"amount_off,omitempty"`  // smallest currency unit
}

type BillingTerms struct {
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Interval        BillingInterval `json:"interval"`
	IntervalCount   int             `json:"interval_count"`
	TrialPeriodDays int             `json:"trial_period_days,omitempty"`
	Discount        *Discount       `json:"discount,omitempty"`
}

// AddCalendarMonths advances t by n calendar months. When the day of month
// does not exist in the target month it is clamped to the month's last day,
// so Jan 31 + 1 month is Feb 28 (or 29), never Mar 3.
func AddCalendarMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	first := time.Date(y, m+time.Month(n), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// PeriodEnd returns the end of a billing period starting at start.
func PeriodEnd(start time.Time, interval BillingInterval, count int) time.Time {
	return AddCalendarMonths(start, interval.Months()*count)
}

type CreateSubscriptionRequest struct {
	UserID     string            `json:"user_id"`
	CarePlanID string            `json:"care_plan_id"`
	ProviderID string            `json:"provider_id"`
	Billing    BillingTerms      `json:"billing"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SubscriptionUpdate is a partial update; nil fields are left unchanged.
type SubscriptionUpdate struct {
	Status            *SubscriptionStatus `json:"status,omitempty"`
	CancelAtPeriodEnd *bool               `json:"cancel_at_period_end,omitempty"`
	Billing           *BillingTerms       `json:"billing,omitempty"`
	Metadata          map[string]string   `json:"metadata,omitempty"`
}

// Subscription is a recurring billing agreement for one care plan.
type Subscription struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	CarePlanID         string             `json:"care_plan_id"`
	ProviderID         string             `json:"provider_id"`
	Status             SubscriptionStatus `json:"status"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end"`
	BillingAnchor      time.Time          `json:"billing_anchor"`
	TrialEnd           *time.Time         `json:"trial_end,omitempty"`
	CancelAtPeriodEnd  bool               `json:"cancel_at_period_end"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	Billing            BillingTerms       `json:"billing"`
	Metadata           map[string]string  `json:"metadata,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NextPeriod moves the current period forward by one billing interval.
// Period ends are whole multiples of the interval counted from
// BillingAnchor, so a day clamped in a short month is restored in the
// next long one (Jan 31, Feb 29, Mar 31). A zero anchor is taken from
// the current period start.
func (s *Subscription) NextPeriod() {
	if s.BillingAnchor.IsZero() {
		s.BillingAnchor = s.CurrentPeriodStart
	}
	step := s.Billing.Interval.Months() * s.Billing.IntervalCount
	if step <= 0 {
		return
	}
	s.CurrentPeriodStart = s.CurrentPeriodEnd
	for k := 1; ; k++ {
		end := AddCalendarMonths(s.BillingAnchor, k*step)
		if end.After(s.CurrentPeriodStart) {
			s.CurrentPeriodEnd = end
			return
		}
	}
}

func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	cp := *s
	if s.TrialEnd != nil {
		te := *s.TrialEnd
		cp.TrialEnd = &te
	}
	if s.CancelledAt != nil {
		ca := *s.CancelledAt
		cp.CancelledAt = &ca
	}
	if s.Billing.Discount != nil {
		d := *s.Billing.Discount
		cp.Billing.Discount = &d
	}
	cp.Metadata = cloneStrings(s.Metadata)
	return &cp
}
