package models

import (
	"time"
)

type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// StripeInterval maps the billing cycle onto Stripe's recurring interval.
func (b BillingCycle) StripeInterval() string {
	if b == BillingYearly {
		return "year"
	}
	return "month"
}

// NextExpiry returns the expiry for one billing cycle after from, using
// calendar arithmetic. When the source day does not exist in the target
// month (e.g. Jan 31 + 1 month) the day is clamped to the last valid day
// of the target month.
func (b BillingCycle) NextExpiry(from time.Time) time.Time {
	months := 1
	if b == BillingYearly {
		months = 12
	}
	return addMonthsClamped(from, months)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := m + time.Month(months)
	// day 0 of the month after the target normalizes to the target's last day
	lastDay := time.Date(y, target+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(y, target, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Plan is a purchasable subscription tier. Billing fields are immutable once
// a payment references the plan; the Stripe identifiers are filled in the
// first time a checkout session is created for it.
type Plan struct {
	ID              string       `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Title           string       `json:"title" gorm:"not null"`
	Description     string       `json:"description"`
	Price           float64      `json:"price" gorm:"not null"`
	BillingCycle    BillingCycle `json:"billingCycle" gorm:"type:varchar(20);default:'monthly'"`
	StripeProductId string       `json:"stripeProductId"`
	StripePriceId   string       `json:"stripePriceId"`

	// Plan features
	IdentitiesLimit      int    `json:"identitiesLimit" gorm:"default:10"`
	ScansPerMonth        int    `json:"scansPerMonth" gorm:"default:10"`
	AutomatedDataRemoval bool   `json:"automatedDataRemoval" gorm:"default:true"`
	PdfExportLimit       *int   `json:"pdfExportLimit"`
	SupportHours         string `json:"supportHours" gorm:"default:'24-48h'"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
