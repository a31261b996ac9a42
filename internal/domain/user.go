package domain

// UserProfile holds end-user account metadata.
//
// Favorites is a soft set: ids may reference entries that have since been
// deleted, and consumers must skip dangling ids rather than fail.
type UserProfile struct {
	UID       string   `json:"uid"`
	Nickname  string   `json:"nickname"`
	Favorites []string `json:"favorites,omitempty"`
}

// HasFavorite reports whether entryID is in the user's favorites set.
func (u *UserProfile) HasFavorite(entryID string) bool {
	for _, id := range u.Favorites {
		if id == entryID {
			return true
		}
	}

	return false
}

// Identity is the authenticated principal supplied by the identity provider.
// The service treats both fields as opaque strings and never validates them.
type Identity struct {
	UID      string `json:"uid"`
	Nickname string `json:"nickname"`
}
