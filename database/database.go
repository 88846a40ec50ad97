package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/store"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table the service owns, in migration order.
var Models = []any{
	&models.User{},
	&models.Container{},
	&models.WorkforcePerson{},
	&models.Candidate{},
	&models.InjuryReport{},
	&models.InjuryFile{},
	&models.StartupChecklist{},
	&models.TerminationRecord{},
	&models.DamageReport{},
	&models.ChatMessage{},
}

// Open connects to dsn and migrates the schema. A dsn starting with
// "sqlite:" opens a SQLite database (":memory:" included) for local runs and
// tests; anything else is handed to Postgres. The first connection is retried
// with exponential backoff so the service can start before the database.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	log = log.Named("database")
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	var db *gorm.DB
	if path, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		var err error
		db, err = gorm.Open(sqlite.Open(path), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	} else {
		policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
		err := backoff.Retry(func() error {
			var err error
			db, err = gorm.Open(postgres.Open(dsn), cfg)
			if err != nil {
				log.Warn("database not reachable, retrying", zap.Error(err))
			}
			return err
		}, policy)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// SeedDefaultAdmin creates the first Super Admin when no user with email
// exists yet. The account must change its password on first login.
func SeedDefaultAdmin(ctx context.Context, s *store.Store, email, password string, log *zap.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, e.ErrNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		ID:                 uuid.New(),
		Email:              email,
		FullName:           "Administrator",
		PasswordHash:       string(hashedPassword),
		Role:               models.RoleSuperAdmin,
		MustChangePassword: true,
	}
	if err := s.Users.Insert(ctx, &admin); err != nil {
		return err
	}

	log.Named("database").Info("default admin user created", zap.String("email", email))
	return nil
}

// Ping checks the connection with a short deadline for /healthz.
func Ping(ctx context.Context, s *store.Store) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Ping(ctx)
}
