package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is one settled (or attempted) charge. TransactionId doubles as the
// idempotency key for webhook deliveries: the same Stripe payment intent may
// only ever produce one row.
type Payment struct {
	ID                   string        `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID               string        `json:"userId" gorm:"type:uuid;not null"`
	PlanID               string        `json:"planId" gorm:"type:uuid;not null"`
	Amount               float64       `json:"amount"`
	TransactionId        string        `json:"transactionId" gorm:"unique;not null"`
	InvoiceId            string        `json:"invoiceId"`
	StripeSubscriptionId string        `json:"stripeSubscriptionId"`
	Status               PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	PaymentDate          time.Time     `json:"paymentDate"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// GenerateInvoiceId covers checkout sessions that settle without a Stripe
// invoice attached.
func GenerateInvoiceId() string {
	return "inv_" + uuid.NewString()
}
