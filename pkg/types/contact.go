package types

import "strings"

// Contact is the customer contact a seller attaches to a lead. It stays
// private until the lead sells; serialization to buyers is the settlement
// service's responsibility, never the model's.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// IsZero reports whether no contact information was provided.
func (c Contact) IsZero() bool {
	return strings.TrimSpace(c.Name) == "" &&
		strings.TrimSpace(c.Phone) == "" &&
		strings.TrimSpace(c.Email) == ""
}
