package types

const (
	ContextUserKey  = "user"
	ContextScopeKey = "scope"
)

// AuthenticatedUser is what the auth middleware leaves in the request context.
type AuthenticatedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// PathScope holds the parent resource ids embedded in a nested path. Zero
// means the path has no such segment.
type PathScope struct {
	ProjectID uint
	IssueID   uint
}
