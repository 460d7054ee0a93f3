package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScanHistoryRecord is an append-only audit row: one per (member, scan)
// fetch performed by the background scan task. Raw provider payloads are
// kept verbatim.
type ScanHistoryRecord struct {
	ID                string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	MemberUUID        string         `json:"memberUuid" gorm:"index;not null"`
	Email             string         `json:"email"`
	ScanID            string         `json:"scanId" gorm:"not null"`
	RawScanData       datatypes.JSON `json:"rawScanData" gorm:"type:jsonb"`
	RawScreenshotData datatypes.JSON `json:"rawScreenshotData" gorm:"type:jsonb"`
	CreatedAt         time.Time      `json:"createdAt"`
}
