package auth

import "time"

// Strategy verifies bearer tokens issued by the identity service and, for
// tests and tooling, can mint them.
type Strategy interface {
	IssueToken(userID string) (string, error)
	ParseToken(token string) (string, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
