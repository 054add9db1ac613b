package domain

import "time"

// Session binds a connected frontend user to their deployed Safe wallet.
// Sessions are issued by POST /api/connect and referenced by later trading
// and balance calls via the X-Session-ID header.
type Session struct {
	ID           string    `json:"session_id"`
	FID          int64     `json:"fid"`
	OwnerAddress string    `json:"owner_address"`
	SafeAddress  string    `json:"safe_address"`
	CreatedAt    time.Time `json:"created_at"`
}
