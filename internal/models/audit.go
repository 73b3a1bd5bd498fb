package models

import (
	"time"

	"github.com/google/uuid"
)

// Security event types recorded in the audit trail
type AuditEventType string

const (
	AuditRegistration           AuditEventType = "registration"
	AuditLogin                  AuditEventType = "login"
	AuditFailedLogin            AuditEventType = "failed_login"
	AuditAccountLockout         AuditEventType = "account_lockout"
	AuditLogout                 AuditEventType = "logout"
	AuditPasswordChange         AuditEventType = "password_change"
	AuditPasswordResetRequested AuditEventType = "password_reset_requested"
	AuditPasswordReset          AuditEventType = "password_reset"
	AuditEmailVerification      AuditEventType = "email_verification"
	AuditTokenRefresh           AuditEventType = "token_refresh"
)

// AuditEntry is an immutable security event. Created once per event,
// never mutated or deleted. FailureReason keeps the precise internal
// cause even when the caller-facing error is deliberately generic.
type AuditEntry struct {
	ID            uuid.UUID
	UserID        *uuid.UUID
	Email         string
	EventType     AuditEventType
	Success       bool
	FailureReason string
	IPAddress     string
	UserAgent     string
	CreatedAt     time.Time
}
