package domain

// User roles.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
)

type User struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Hash      string `db:"password_hash"`
	Role      string `db:"role"`
	AccountID int    `db:"account_id"`
}

func (u *User) IsSeller() bool { return u.Role == RoleSeller }
