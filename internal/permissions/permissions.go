// Package permissions holds the authorization predicates. Each predicate is a
// free function over a Subject and returns a Decision; handlers combine them
// with All, which stops at the first denial.
package permissions

import "net/http"

type Decision int

const (
	Allow Decision = iota
	DenyForbidden
	DenyNotFound
	DenyUnauthenticated
)

func (d Decision) Allowed() bool { return d == Allow }

// Status is the HTTP status a denial surfaces as.
func (d Decision) Status() int {
	switch d {
	case DenyUnauthenticated:
		return http.StatusUnauthorized
	case DenyForbidden:
		return http.StatusForbidden
	case DenyNotFound:
		return http.StatusNotFound
	default:
		return http.StatusOK
	}
}

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyForbidden:
		return "forbidden"
	case DenyNotFound:
		return "not_found"
	case DenyUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

type Operation int

const (
	Read Operation = iota
	Write
)

// Subject is the actor plus what the path scope resolved to. Zero IDs mean
// "absent".
type Subject struct {
	ActorID         uint
	Operation       Operation
	IsContributor   bool
	ProjectAuthorID uint
	ObjectAuthorID  uint
	TargetUserID    uint
}

type Predicate func(Subject) Decision

// All evaluates predicates in order and returns the first denial.
func All(s Subject, predicates ...Predicate) Decision {
	for _, p := range predicates {
		if d := p(s); d != Allow {
			return d
		}
	}
	return Allow
}

func Authenticated(s Subject) Decision {
	if s.ActorID == 0 {
		return DenyUnauthenticated
	}
	return Allow
}

// ProjectMember masks the project's existence from non-contributors.
func ProjectMember(s Subject) Decision {
	if !s.IsContributor {
		return DenyNotFound
	}
	return Allow
}

// AuthorOrReadOnly lets any reader through and reserves writes to the
// object's author.
func AuthorOrReadOnly(s Subject) Decision {
	if s.Operation == Read {
		return Allow
	}
	if s.ObjectAuthorID != s.ActorID {
		return DenyForbidden
	}
	return Allow
}

// ProjectAuthor reserves an operation to the project's author regardless of
// whether it reads or writes.
func ProjectAuthor(s Subject) Decision {
	if s.ProjectAuthorID != s.ActorID {
		return DenyForbidden
	}
	return Allow
}

// ProjectAuthorOrReadOnly is ProjectAuthor for writes only.
func ProjectAuthorOrReadOnly(s Subject) Decision {
	if s.Operation == Read {
		return Allow
	}
	return ProjectAuthor(s)
}

// Self restricts user accounts to their owner. Reads of other accounts look
// like missing records; writes are refused outright.
func Self(s Subject) Decision {
	if s.TargetUserID == s.ActorID {
		return Allow
	}
	if s.Operation == Read {
		return DenyNotFound
	}
	return DenyForbidden
}
