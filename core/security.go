package core

// SecurityContext is the account / credential scope under which every
// capability of one completion request executes. It is created once per
// request, passed by reference to every capability builder, and never
// mutated after creation.
type SecurityContext struct {
	accountID int64
	authToken string
}

// NewSecurityContext creates the security scope for one completion request.
// authToken is the forwarded caller credential (JWT or API key) handed to
// collaborators that authenticate per caller; it may be empty.
func NewSecurityContext(accountID int64, authToken string) *SecurityContext {
	return &SecurityContext{accountID: accountID, authToken: authToken}
}

// AccountID returns the requesting account identifier.
func (s *SecurityContext) AccountID() int64 { return s.accountID }

// AuthToken returns the forwarded caller credential, or "" if none.
func (s *SecurityContext) AuthToken() string { return s.authToken }
