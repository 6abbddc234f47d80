/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - ErrorResponse: Standard error envelope {code, message}

WIRE FORMAT:
  Charge/use requests carry a bare JSON number as the body (the amount),
  not an object. Responses use the point ledger's canonical field names:
  balance {id, point, updateMillis}, history entries
  {id, userId, amount, type, updateMillis}.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import "github.com/warp/point-ledger/point"

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// BalanceDTO represents a user's current balance.
type BalanceDTO struct {
	ID           int64 `json:"id"`
	Point        int64 `json:"point"`
	UpdateMillis int64 `json:"updateMillis"`
}

// HistoryDTO represents one history record.
type HistoryDTO struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"userId"`
	Amount       int64  `json:"amount"`
	Type         string `json:"type"`
	UpdateMillis int64  `json:"updateMillis"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toBalanceDTO(b point.UserBalance) BalanceDTO {
	return BalanceDTO{
		ID:           int64(b.UserID),
		Point:        b.Points,
		UpdateMillis: b.UpdatedAtMillis,
	}
}

func toHistoryDTO(rec point.TransactionRecord) HistoryDTO {
	return HistoryDTO{
		ID:           int64(rec.ID),
		UserID:       int64(rec.UserID),
		Amount:       rec.Amount,
		Type:         string(rec.Type),
		UpdateMillis: rec.TimestampMillis,
	}
}

func toHistoryDTOs(recs []point.TransactionRecord) []HistoryDTO {
	dtos := make([]HistoryDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toHistoryDTO(rec)
	}
	return dtos
}
