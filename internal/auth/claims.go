package auth

import "github.com/golang-jwt/jwt/v5"

// Role gates what an API caller may do. Viewers read summaries and
// dashboards; admins may additionally trigger ingestion runs.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Claims are the only supported JWT claims shape for this service.
// Subject identifies the operator the token was minted for; Role carries the
// single authorization level. There is no refresh flow: tokens are minted by
// the CLI and re-minted when they expire.
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
}
