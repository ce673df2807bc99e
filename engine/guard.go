// ABOUTME: Optimistic concurrency guard comparing supplied and stored version tokens
// ABOUTME: Runs before any other request validation on every mutating operation
package engine

// Guard fails with CONFLICT_DETECTED unless supplied is exactly the stored version.
func Guard(current, supplied string) error {
	if supplied == "" {
		return newError(ErrConflict, "a version token is required; current version is %s", current)
	}
	if current != supplied {
		return newError(ErrConflict, "version %s is stale; current version is %s", supplied, current)
	}
	return nil
}
