/*
policy.go - Point policy: pure validation rules

PURPOSE:
  The rules that decide whether a requested charge or use is acceptable.
  Stateless, no I/O, no side effects - just the current balance and the
  requested amount in, a verdict out. The engine calls these before it
  touches the store, so a rejected request provably mutates nothing.

RULES:
  Charge: amount must be at least MinimumCharge, and crediting it onto
          the current balance must stay representable in int64. Zero
          and negative amounts are always rejected.
  Use:    amount must be positive and must not exceed the current
          balance. Using exactly the full balance is permitted.

SEE ALSO:
  - engine.go: Calls ValidateCharge/ValidateUse inside the critical section
  - errors.go: The error types produced here
*/
package point

import "math"

// MinimumCharge is the smallest amount a single charge may credit.
const MinimumCharge int64 = 1

// ValidateCharge checks a requested charge amount against the static
// policy. Returns an InvalidAmountError (unwraps to ErrInvalidAmount)
// when the amount is below MinimumCharge.
func ValidateCharge(userID UserID, amount int64) error {
	if amount < MinimumCharge {
		return &InvalidAmountError{
			UserID: userID,
			Amount: amount,
			Reason: "charge amount below minimum",
		}
	}
	return nil
}

// ValidateChargeCapacity checks that crediting amount onto the current
// balance does not overflow int64. Without this guard a huge charge
// would wrap the stored points negative. Returns an InvalidAmountError
// when the sum is not representable.
func ValidateChargeCapacity(current UserBalance, amount int64) error {
	if amount > math.MaxInt64-current.Points {
		return &InvalidAmountError{
			UserID: current.UserID,
			Amount: amount,
			Reason: "charge exceeds balance capacity",
		}
	}
	return nil
}

// ValidateUse checks a requested use amount against the current balance.
// Returns an InvalidAmountError for zero/negative amounts and an
// InsufficientPointsError (unwraps to ErrInsufficientPoints) when the
// amount exceeds the balance. amount == current.Points succeeds.
func ValidateUse(current UserBalance, amount int64) error {
	if amount <= 0 {
		return &InvalidAmountError{
			UserID: current.UserID,
			Amount: amount,
			Reason: "use amount must be positive",
		}
	}
	if amount > current.Points {
		return &InsufficientPointsError{
			UserID:    current.UserID,
			Available: current.Points,
			Requested: amount,
		}
	}
	return nil
}
