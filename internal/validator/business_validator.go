package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/certchain/credential-service/internal/models"
)

// BusinessValidator handles rules that span more than one field or row,
// beyond what struct tags can express.
type BusinessValidator struct {
	validator *Validator
}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{validator: New()}
}

// ValidateBatchRows checks a batch issuance before any network call is
// made. A single bad row rejects the whole batch so the contract call
// stays all-or-nothing.
func (bv *BusinessValidator) ValidateBatchRows(rows []models.BatchIssueRow) ValidationErrors {
	var errors ValidationErrors

	if len(rows) == 0 {
		return ValidationErrors{{Field: "rows", Message: "batch must contain at least one row", Rule: "business_logic"}}
	}

	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row.CertID) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("rows[%d].cert_id", i),
				Message: "is required",
				Rule:    "business_logic",
			})
		}
		if strings.TrimSpace(row.StudentName) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("rows[%d].student_name", i),
				Message: "is required",
				Rule:    "business_logic",
			})
		}
		if strings.TrimSpace(row.StudentID) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("rows[%d].student_id", i),
				Message: "is required",
				Rule:    "business_logic",
			})
		}

		certID := strings.TrimSpace(row.CertID)
		if certID != "" {
			if prev, dup := seen[certID]; dup {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("rows[%d].cert_id", i),
					Message: fmt.Sprintf("duplicates row %d", prev),
					Value:   certID,
					Rule:    "business_logic",
				})
			} else {
				seen[certID] = i
			}
		}
	}

	return errors
}

// ValidateEventDate rejects events scheduled before today.
func (bv *BusinessValidator) ValidateEventDate(date time.Time) ValidationErrors {
	today := time.Now().Truncate(24 * time.Hour)
	if date.Before(today) {
		return ValidationErrors{{
			Field:   "date",
			Message: "cannot schedule an event in the past",
			Value:   date,
			Rule:    "business_logic",
		}}
	}
	return nil
}

// ValidateRegistrationCapacity checks a seat request against the event's
// limit. Registered count is read by the caller inside a transaction.
func (bv *BusinessValidator) ValidateRegistrationCapacity(maxSeats *int, registered int64) ValidationErrors {
	if maxSeats != nil && registered >= int64(*maxSeats) {
		return ValidationErrors{{
			Field:   "event",
			Message: "event is fully booked",
			Value:   registered,
			Rule:    "business_logic",
		}}
	}
	return nil
}
