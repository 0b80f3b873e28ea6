package database

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"

	"gorm.io/gorm"
)

//go:embed migrations/*/up.sql migrations/*/down.sql
var migrationsFS embed.FS

var migrationVersionRegex = regexp.MustCompile(`^(\d+)_`)

type SchemaVersion uint64

type SchemaMigration struct {
	Version SchemaVersion `gorm:"primaryKey"`
}

// CurrentSchemaVersion returns the highest applied migration, or zero.
func CurrentSchemaVersion(db *gorm.DB) (SchemaVersion, error) {
	var migration SchemaMigration
	err := db.
		Model(&SchemaMigration{}).
		Select("version").
		Order("version desc").
		Limit(1).
		Scan(&migration).Error
	return migration.Version, err
}

type Migration struct {
	Version SchemaVersion
	Name    string
}

// Up applies the migration's up.sql.
func (m Migration) Up(db *gorm.DB) error {
	sql, err := m.read("up.sql")
	if err != nil {
		return err
	}
	return db.Exec(sql).Error
}

// Down reverts the migration with its down.sql.
func (m Migration) Down(db *gorm.DB) error {
	sql, err := m.read("down.sql")
	if err != nil {
		return err
	}
	return db.Exec(sql).Error
}

func (m Migration) read(file string) (string, error) {
	data, err := fs.ReadFile(migrationsFS, fmt.Sprintf("migrations/%s/%s", m.Name, file))
	if err != nil {
		return "", fmt.Errorf("failed to read %s for migration %s: %w", file, m.Name, err)
	}
	return string(data), nil
}

// Migrate applies every embedded migration newer than the recorded schema
// version, each inside its own transaction.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := CurrentSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	migrations, err := MigrationsNewerThan(current)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{Version: migration.Version}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
	}
	return nil
}

// Rollback reverts applied migrations newer than target, newest first, each
// inside its own transaction.
func Rollback(db *gorm.DB, target SchemaVersion) error {
	migrations, err := MigrationsNewerThan(target)
	if err != nil {
		return err
	}
	current, err := CurrentSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if migration.Version > current {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&SchemaMigration{Version: migration.Version}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to roll back migration %d: %w", migration.Version, err)
		}
	}
	return nil
}

// MigrationsNewerThan lists embedded migrations above minVersion in
// ascending order.
func MigrationsNewerThan(minVersion SchemaVersion) ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	var migrations []Migration
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		match := migrationVersionRegex.FindStringSubmatch(entry.Name())
		if len(match) != 2 {
			return nil, fmt.Errorf("invalid migration directory name: %s", entry.Name())
		}
		versionInt, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version: %s - %w", match[1], err)
		}
		version := SchemaVersion(versionInt)
		if version <= minVersion {
			continue
		}
		migrations = append(migrations, Migration{Version: version, Name: entry.Name()})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}
