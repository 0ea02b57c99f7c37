package domain

// SessionStatus tracks the lifecycle of a signature session.
// A session is created as pending when authorization starts and reaches a
// terminal status when the callback resolves. Terminal rows are never deleted;
// they are part of the audit trail.
type SessionStatus string

const (
	// SessionStatusPending marks an in-flight authorization attempt.
	SessionStatusPending SessionStatus = "pending"
	// SessionStatusCompleted marks a session whose document was signed.
	SessionStatusCompleted SessionStatus = "completed"
	// SessionStatusFailed marks a session that ended in any failure.
	SessionStatusFailed SessionStatus = "failed"
)

// DocumentStatus tracks the signable document lifecycle.
type DocumentStatus string

const (
	// DocumentStatusDraft is the initial state. A document stays draft on any
	// signing failure.
	DocumentStatusDraft DocumentStatus = "draft"
	// DocumentStatusSigned is the terminal success state.
	DocumentStatusSigned DocumentStatus = "signed"
)

// FlowState is the observable state of the signature flow for one
// (user, document) pair. It is reconstructed from storage plus inbound
// callback parameters on every entry; nothing is held in process across the
// external redirect.
type FlowState string

const (
	FlowStateReady       FlowState = "ready"
	FlowStateAuthorizing FlowState = "authorizing"
	FlowStateSigning     FlowState = "signing"
	FlowStateCompleted   FlowState = "completed"
	FlowStateError       FlowState = "error"
)

// Audit action names.
const (
	AuditActionSign     = "sign_document"
	AuditActionSignMock = "sign_document_mock"
)

// SignatureFormat identifies the signature profile applied by the provider.
const SignatureFormat = "PAdES"

// MockCertificateIssuer is the issuer label written by the mock signer. It is
// deliberately distinguishable from any accredited certificate authority name
// so a mock signature can never be mistaken for a production one.
const MockCertificateIssuer = "CLINSIGN DEVELOPMENT CA (NOT FOR PRODUCTION)"
