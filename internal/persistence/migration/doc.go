// Package migration applies the embedded schema migrations for the configured
// SQL driver and records them in the schema_migrations table.
//
// Files live under sql/<driver>/ and follow the {version}_{description}.sql
// naming convention. Each file runs inside one transaction; a file whose
// checksum changed after it was applied stops the run.
package migration
