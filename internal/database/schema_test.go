package database

import (
	"io/fs"
	"path"
	"strings"
	"testing"
)

func readMigration(t *testing.T, name string) string {
	t.Helper()

	content, err := fs.ReadFile(embedMigrations, path.Join(migrationsDir, name))
	if err != nil {
		t.Fatalf("Failed to read migration %s: %v", name, err)
	}
	return string(content)
}

func TestMigrationFilesExist(t *testing.T) {
	expectedMigrations := []string{
		"00001_create_users_table.sql",
		"00002_create_products_table.sql",
		"00003_create_orders_table.sql",
	}

	for _, migration := range expectedMigrations {
		if _, err := fs.Stat(embedMigrations, path.Join(migrationsDir, migration)); err != nil {
			t.Errorf("Migration file %s is not embedded: %v", migration, err)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := fs.ReadDir(embedMigrations, migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		contentStr := readMigration(t, file.Name())

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing '%s' directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"users":    "00001_create_users_table.sql",
		"products": "00002_create_products_table.sql",
		"orders":   "00003_create_orders_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		contentStr := readMigration(t, migrationFile)

		if !strings.Contains(contentStr, "CREATE TABLE IF NOT EXISTS "+tableName) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}
		if !strings.Contains(contentStr, "DROP TABLE IF EXISTS "+tableName) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestMigrationFilesCreateLookupIndexes(t *testing.T) {
	expectedIndexes := map[string]string{
		"CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email)":   "00001_create_users_table.sql",
		"CREATE INDEX IF NOT EXISTS idx_products_name ON products (name)":      "00002_create_products_table.sql",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id)":    "00003_create_orders_table.sql",
	}

	for statement, migrationFile := range expectedIndexes {
		if !strings.Contains(readMigration(t, migrationFile), statement) {
			t.Errorf("Migration file %s missing index: %s", migrationFile, statement)
		}
	}
}

func TestOrdersTableStoresItemsAsDocument(t *testing.T) {
	contentStr := readMigration(t, "00003_create_orders_table.sql")

	for _, column := range []string{
		"id UUID PRIMARY KEY",
		"user_id UUID NOT NULL REFERENCES users (id)",
		"items JSONB",
		"total_price NUMERIC",
	} {
		if !strings.Contains(contentStr, column) {
			t.Errorf("Orders table missing column definition: %s", column)
		}
	}
}
