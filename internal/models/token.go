package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by the token manager on registration, login or rotation
// Refresh carries the plaintext secret, shown exactly once
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
