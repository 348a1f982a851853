package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/repository"
	"github.com/Athul-13/tablespot-api/internal/repository/postgres/migrations"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// Models lists every table managed by the service, in dependency order.
var Models = []any{
	&domain.User{},
	&domain.RefreshToken{},
	&domain.PasswordResetToken{},
	&domain.Restaurant{},
	&domain.Rating{},
	&domain.Comment{},
	&domain.AuthEvent{},
}

// NewConnection opens the database named by databaseURL and brings its schema
// up to date. A "sqlite:" prefix selects an embedded SQLite database migrated
// with AutoMigrate; anything else is treated as a postgres DSN and migrated
// with the embedded goose migrations.
func NewConnection(ctx context.Context, databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	if dsn, ok := strings.CutPrefix(databaseURL, sqlitePrefix); ok {
		return openSQLite(dsn, cfg)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func openSQLite(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; one connection also keeps the foreign key
	// pragma and in-memory databases alive.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded goose migrations to a postgres database.
func Migrate(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:               NewUserRepository(db),
		RefreshToken:       NewRefreshTokenRepository(db),
		PasswordResetToken: NewPasswordResetTokenRepository(db),
		AuthEvent:          NewAuthEventRepository(db),
		Restaurant:         NewRestaurantRepository(db),
		Rating:             NewRatingRepository(db),
		Comment:            NewCommentRepository(db),
	}
}
