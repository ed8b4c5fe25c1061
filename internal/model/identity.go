package model

// Identity is the authenticated principal attached to a connection by the
// identity provider before any control message is processed.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Valid reports whether the identity carries the required fields.
func (i Identity) Valid() bool {
	return i.UserID != "" && i.Username != ""
}
