//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// ConnectedAccount mirrors a payee-owned processor account that receives transfers.
type ConnectedAccount struct {
	AccountID        string     `json:"accountId"                  db:"account_id"`
	UserID           *string    `json:"userId,omitempty"           db:"user_id"`
	ChargesEnabled   bool       `json:"chargesEnabled"             db:"charges_enabled"`
	PayoutsEnabled   bool       `json:"payoutsEnabled"             db:"payouts_enabled"`
	TransfersActive  bool       `json:"transfersActive"            db:"transfers_active"`
	Deauthorized     bool       `json:"deauthorized"               db:"deauthorized"`
	LastPayoutStatus *string    `json:"lastPayoutStatus,omitempty" db:"last_payout_status"`
	LastPayoutAt     *time.Time `json:"lastPayoutAt,omitempty"     db:"last_payout_at"`
	UpdatedAt        time.Time  `json:"updatedAt"                  db:"updated_at"`
}

// PayoutCapable reports whether transfers to this account can succeed.
func (a *ConnectedAccount) PayoutCapable() bool {
	return a != nil && !a.Deauthorized && a.TransfersActive && a.PayoutsEnabled
}

// PayoutEvent records a payout lifecycle change on a connected account.
type PayoutEvent struct {
	AccountID string
	PayoutID  string
	Status    string
	At        time.Time
}
