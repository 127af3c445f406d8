package models

import "time"

// ===== REGISTRY DTOs =====

type RegisterStudentRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=200"`
	StudentID  string `json:"student_id" validate:"required,student_id"`
	Department string `json:"department" validate:"omitempty,max=100"`
	Wallet     string `json:"wallet" validate:"omitempty,eth_address"`
}

type BulkImportResult struct {
	TotalRows int `json:"total_rows"`
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
}

// ===== ISSUANCE DTOs =====

type IssueCertificateRequest struct {
	CertID      string `json:"cert_id" validate:"required,cert_id"`
	StudentName string `json:"student_name" validate:"required,min=1,max=200"`
	StudentID   string `json:"student_id" validate:"required,student_id"`
	Recipient   string `json:"recipient" validate:"omitempty,eth_address"`
}

// BatchIssueRow is one certificate in a batch issuance. Every row must
// carry a certificate ID, a name and a student ID before anything is
// pinned or signed; the batch fails as a whole otherwise.
type BatchIssueRow struct {
	CertID      string `json:"cert_id"`
	StudentName string `json:"student_name"`
	StudentID   string `json:"student_id"`
	Recipient   string `json:"recipient"`
}

type IssuanceReceipt struct {
	CertID    string    `json:"cert_id,omitempty"`
	TxHash    string    `json:"tx_hash"`
	Count     int       `json:"count"`
	StudentID string    `json:"student_id,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
}

// ===== EVENT DTOs =====

type CreateEventRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string  `json:"time" validate:"omitempty"`
	Location    string  `json:"location" validate:"omitempty,max=200"`
	MaxSeats    *int    `json:"max_seats" validate:"omitempty,min=1"`
}

type RegisterForEventRequest struct {
	StudentID   string            `json:"student_id" validate:"required,student_id"`
	StudentName string            `json:"student_name" validate:"required,min=1,max=200"`
	Wallet      string            `json:"wallet" validate:"omitempty,eth_address"`
	Contact     map[string]string `json:"contact"`
}

// ===== GENERIC RESPONSES =====

type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Path      string      `json:"path,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
