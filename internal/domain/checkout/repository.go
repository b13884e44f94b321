package checkout

import "context"

// SnapshotRepository defines persistence operations for checkout snapshots.
// Snapshots are keyed by payment session and are deleted once the session
// is settled (order recorded) or expired.
type SnapshotRepository interface {
	Save(ctx context.Context, s *Snapshot) error
	FindBySession(ctx context.Context, sessionID string) (*Snapshot, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}
