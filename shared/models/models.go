package models

// Account is the write model for the accounts table.
type Account struct {
	AccountID    int64  `json:"account_id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// PersonInfo is the personinfo row that belongs to an Account.
type PersonInfo struct {
	AccountID int64  `json:"account_id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}
