package cqrs

type CreateAccountCommand struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

type DeleteAccountCommand struct {
	Username string
}
