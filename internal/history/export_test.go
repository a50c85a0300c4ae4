package history

import "context"

// BumpSchemaVersionForTest rewrites the stored schema version.
func (s *Store) BumpSchemaVersionForTest(version int) error {
	_, err := s.db.ExecContext(context.Background(), "UPDATE schema_version SET version = ?", version)
	return err
}
