package sessions

import (
	"time"

	"github.com/google/uuid"
)

// Session is one issued refresh-token lineage. Deleting it revokes every
// token that carries its ID.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
