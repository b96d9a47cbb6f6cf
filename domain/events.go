package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Registration events
	IdentityRegisteredEvent AuditEventType = "IDENTITY_REGISTERED"
	RegistrationResentEvent AuditEventType = "REGISTRATION_OTP_RESENT"

	// OTP events
	OTPRequestEvent AuditEventType = "OTP_REQUESTED"
	OTPVerifyEvent  AuditEventType = "OTP_VERIFIED"
	OTPFailureEvent AuditEventType = "OTP_VERIFICATION_FAILED"

	// Authentication events
	LoginEvent            AuditEventType = "LOGIN"
	LoginFailureEvent     AuditEventType = "LOGIN_FAILED"
	CredentialRehashEvent AuditEventType = "CREDENTIAL_REHASHED"
	PasswordChangedEvent  AuditEventType = "PASSWORD_CHANGED"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType  AuditEventType         `json:"event_type"`
	IdentityID uint                   `json:"identity_id,omitempty"`
	Store      StoreKind              `json:"store,omitempty"`
	Identifier string                 `json:"identifier,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	ErrorMsg   string                 `json:"error_msg,omitempty"`
	Success    bool                   `json:"success"`
}

// AuditLogger records audit events
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent)
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, identifier string) *AuditEvent {
	return &AuditEvent{
		EventType:  eventType,
		Identifier: identifier,
		Timestamp:  time.Now().UTC(),
		Metadata:   make(map[string]interface{}),
		Success:    true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithIdentity sets the identity the event concerns
func (e *AuditEvent) WithIdentity(identity *Identity) *AuditEvent {
	if identity != nil {
		e.IdentityID = identity.ID
		e.Store = identity.SourceStore
	}
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}
