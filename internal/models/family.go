package models

import (
	"time"

	"github.com/google/uuid"
)

// Family is the tenant every user belongs to
// OwnerID is nil only during registration, before ownership is
// transferred to the freshly created user
type Family struct {
	ID        uuid.UUID
	Name      string
	OwnerID   *uuid.UUID
	CreatedAt time.Time
}
