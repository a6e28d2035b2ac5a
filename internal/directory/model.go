// Package directory is the user directory surface of the identity
// provider: consultants, supervisors and support staff. The derivation
// engine joins consultant IDs against it to resolve display names.
package directory

import (
	"time"

	"github.com/rtwworks/platform/internal/shared/auth"
	"github.com/rtwworks/platform/internal/shared/types"
)

// User is a directory entry
type User struct {
	ID        types.ID  `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NameIndex is a lookup table from user ID to display name
type NameIndex map[types.ID]string

// BuildNameIndex builds a NameIndex from directory entries
func BuildNameIndex(users []User) NameIndex {
	idx := make(NameIndex, len(users))
	for _, u := range users {
		idx[u.ID] = u.Name
	}
	return idx
}
