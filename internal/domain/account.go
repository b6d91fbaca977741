package domain

import "time"

// AccountRole distinguishes support staff from regular employees.
type AccountRole string

const (
	RoleTI          AccountRole = "ti"
	RoleFuncionario AccountRole = "funcionario"
)

// Valid reports whether the role is known.
func (r AccountRole) Valid() bool {
	return r == RoleTI || r == RoleFuncionario
}

// Account is a login identity. Tickets reference accounts by Login;
// deleting an account never deletes its tickets, so an orphaned owner
// reference stays readable.
type Account struct {
	ID           string
	Login        string
	PasswordHash string
	Role         AccountRole
	ContactEmail string
	OnlyTasks    bool
	CreatedAt    time.Time
}
