package models

import (
	"math/big"
	"time"
)

type IssuanceMode string

const (
	IssuanceSingle IssuanceMode = "single"
	IssuanceBatch  IssuanceMode = "batch"
)

// ZeroAddress is used as the recipient when a student has no wallet yet.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// IssuedCertificate is the local append-only mirror of a successful
// on-chain issuance. The contract remains the source of truth; this
// table exists for admin listings and statistics.
type IssuedCertificate struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	CertID      string       `json:"cert_id" gorm:"not null;size:128;index" validate:"required,cert_id"`
	StudentName string       `json:"student_name" gorm:"not null;size:200"`
	StudentID   string       `json:"student_id" gorm:"not null;size:64;index"`
	ContentHash string       `json:"content_hash" gorm:"not null;size:128"`
	Recipient   string       `json:"recipient" gorm:"size:42"`
	Mode        IssuanceMode `json:"mode" gorm:"not null;size:16;default:single"`
	TxHash      string       `json:"tx_hash" gorm:"size:66"`
	IssuedAt    time.Time    `json:"issued_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (IssuedCertificate) TableName() string {
	return "issued_certificates"
}

// ChainCertificate is the decoded result of the contract's certificate
// getter. Timestamp is the chain's unix timestamp for the issuance.
type ChainCertificate struct {
	CertID      string   `json:"cert_id"`
	ContentHash string   `json:"content_hash"`
	Timestamp   *big.Int `json:"timestamp"`
	StudentName string   `json:"student_name"`
	StudentID   string   `json:"student_id"`
	Recipient   string   `json:"recipient"`
	Revoked     bool     `json:"revoked"`
}

// IssuanceEvent is a decoded CertificateIssued log entry. The
// certificate ID is an indexed string on chain and only its hash is
// recoverable from the topic, so events carry student fields only.
type IssuanceEvent struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}
