package cart

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// OwnerKind discriminates the two kinds of cart ownership
type OwnerKind string

const (
	// OwnerKindGuest is an anonymous browser session identified by a session ID
	OwnerKindGuest OwnerKind = "guest"
	// OwnerKindUser is an authenticated user identified by a user ID
	OwnerKindUser OwnerKind = "user"
)

// Owner is a tagged variant identifying who a cart belongs to.
// Exactly one of SessionID or UserID is meaningful, depending on Kind.
// Backing selection (ephemeral guest store vs. persisted user store) is a
// single switch on Kind at the cart store entry point.
type Owner struct {
	Kind      OwnerKind
	SessionID string
	UserID    uuid.UUID
}

// GuestOwner creates an Owner for an anonymous session
func GuestOwner(sessionID string) (Owner, error) {
	if sessionID == "" {
		return Owner{}, shared.NewDomainError("INVALID_OWNER", "Guest session ID cannot be empty")
	}
	return Owner{Kind: OwnerKindGuest, SessionID: sessionID}, nil
}

// UserOwner creates an Owner for an authenticated user
func UserOwner(userID uuid.UUID) (Owner, error) {
	if userID == uuid.Nil {
		return Owner{}, shared.NewDomainError("INVALID_OWNER", "User ID cannot be empty")
	}
	return Owner{Kind: OwnerKindUser, UserID: userID}, nil
}

// IsGuest returns true for anonymous session owners
func (o Owner) IsGuest() bool {
	return o.Kind == OwnerKindGuest
}

// IsUser returns true for authenticated user owners
func (o Owner) IsUser() bool {
	return o.Kind == OwnerKindUser
}

// String returns a stable identifier for logging and tracing
func (o Owner) String() string {
	switch o.Kind {
	case OwnerKindGuest:
		return fmt.Sprintf("guest:%s", o.SessionID)
	case OwnerKindUser:
		return fmt.Sprintf("user:%s", o.UserID)
	}
	return "unknown"
}
