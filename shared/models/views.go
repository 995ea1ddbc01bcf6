package models

// AccountView is the read-optimised projection of an account joined with its
// person info. It never carries the password hash.
type AccountView struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}
