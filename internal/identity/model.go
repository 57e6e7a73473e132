package identity

// Collection is the document collection holding user records. It is owned
// by the identity provider; this core reads it and updates only the
// profile fields.
const Collection = "users"

// User represents a registered wallet owner.
type User struct {
	ID      string
	Name    string
	Email   string
	IconRef string
}

const (
	fieldName  = "name"
	fieldEmail = "email"
	fieldIcon  = "image"
)
