package models

import (
	"time"
)

// OpteryMember is the identity profile registered with the scan provider.
type OpteryMember struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	FirstName     string    `json:"firstName" gorm:"not null"`
	MiddleName    string    `json:"middleName"`
	LastName      string    `json:"lastName" gorm:"not null"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Country       string    `json:"country"`
	BirthdayDay   int       `json:"birthdayDay"`
	BirthdayMonth int       `json:"birthdayMonth"`
	BirthdayYear  int       `json:"birthdayYear"`
	Plan          string    `json:"plan"`
	PostponeScan  bool      `json:"postponeScan" gorm:"default:false"`
	GroupTag      string    `json:"groupTag"`
	AddressLine1  string    `json:"addressLine1"`
	AddressLine2  string    `json:"addressLine2"`
	ZipCode       string    `json:"zipCode"`
	MemberUUID    string    `json:"memberUuid" gorm:"index"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
