package ports

// CallerVerifier authenticates inbound API callers
type CallerVerifier interface {
	// Verify validates a bearer token and returns the caller it was issued to
	Verify(token string) (subject string, err error)
}
