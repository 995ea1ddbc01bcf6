package cqrs

// ListAccountsQuery fetches every account. It has no filters.
type ListAccountsQuery struct{}
