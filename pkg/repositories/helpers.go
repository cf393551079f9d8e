// Package repositories provides PostgreSQL data access for the agreements
// engine. Repositories are stateless; every method takes a database.Querier
// so the same code runs against the pool or inside a transaction.
package repositories

// nullString returns nil if the string is empty, otherwise returns the string pointer.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// fromNull converts a nullable text column back to a plain string.
func fromNull(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
