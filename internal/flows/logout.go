package flows

import "context"

type LogoutStore interface {
	Revoke(ctx context.Context, subjectID string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Store LogoutStore
}

// RunLogout revokes the subject's refresh record. Revoking a subject with no
// record is not an error.
func RunLogout(ctx context.Context, subjectID string, deps LogoutDeps) error {
	return deps.Store.Revoke(ctx, subjectID)
}
