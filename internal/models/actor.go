package models

// Actor is the authenticated caller of a request, passed explicitly into services.
type Actor struct {
	UserID    string
	Username  string
	IP        string
	UserAgent string
}

// Is reports whether the actor is the given user.
func (a Actor) Is(userID string) bool {
	return a.UserID != "" && a.UserID == userID
}
