// Package store persists accounts and their publish history in a local
// sqlite database. The automation core never touches it directly; the
// login flow writes identities through the IdentityStore interface and
// the CLI reads users and posts back out.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"redpilot/pkg/auth"
	"redpilot/pkg/logging"
)

const busyRetries = 3

// Store provides ACID access to users and posts.
type Store struct {
	db  *gorm.DB
	log *logging.Logger
}

// Open opens (creating if needed) the database at path and migrates the
// schema. WAL mode allows a reader alongside the writer.
func Open(path string, log *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  newGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA foreign_keys=ON")

	if err := db.AutoMigrate(&User{}, &Post{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// UpsertIdentity inserts or refreshes the user row for an account. The
// phone column mirrors the account id, which is the number the SMS code
// was sent to. An existing row only has its identity columns updated;
// created_at keeps recording the first sign-in.
func (s *Store) UpsertIdentity(identity auth.Identity) error {
	return s.withRetry(func() error {
		user := User{
			AccountID:  identity.AccountID,
			ExternalID: identity.ExternalID,
			Nickname:   identity.Nickname,
			AvatarURL:  identity.AvatarURL,
			Phone:      identity.AccountID,
		}
		return s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"external_id", "nickname", "avatar_url", "phone", "updated_at"}),
		}).Create(&user).Error
	})
}

// DeleteAccount removes the user and all of its posts. Deleting an
// unknown account is not an error.
func (s *Store) DeleteAccount(accountID string) error {
	return s.withRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("account_id = ?", accountID).Delete(&Post{}).Error; err != nil {
				return fmt.Errorf("failed to delete posts: %w", err)
			}
			if err := tx.Where("account_id = ?", accountID).Delete(&User{}).Error; err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
			return nil
		})
	})
}

// FindUser looks up one account. Returns nil without error when the
// account is unknown.
func (s *Store) FindUser(accountID string) (*User, error) {
	var user User
	err := s.db.Where("account_id = ?", accountID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// Users lists all known accounts, oldest first.
func (s *Store) Users() ([]User, error) {
	var users []User
	if err := s.db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SavePost records a publish attempt. The post's ID is filled in on
// return.
func (s *Store) SavePost(post *Post) error {
	return s.withRetry(func() error {
		return s.db.Save(post).Error
	})
}

// Posts lists an account's posts, newest first.
func (s *Store) Posts(accountID string) ([]Post, error) {
	var posts []Post
	err := s.db.Where("account_id = ?", accountID).Order("created_at DESC").Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// DeletePost removes one post by id.
func (s *Store) DeletePost(id uint) error {
	return s.withRetry(func() error {
		result := s.db.Delete(&Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("post %d not found", id)
		}
		return nil
	})
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// withRetry retries on SQLITE_BUSY with linear backoff.
func (s *Store) withRetry(fn func() error) error {
	var err error
	for i := 0; i < busyRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			s.log.Warnf("database busy, retrying: %v", err)
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}
		return err
	}
	return err
}

// gormLogger routes gorm output into the run log. Queries only show up
// in debug mode; errors always do.
type gormLogger struct {
	log   *logging.Logger
	level gormlogger.LogLevel
}

func newGormLogger(log *logging.Logger) gormlogger.Interface {
	return &gormLogger{log: log, level: gormlogger.Warn}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{log: l.log, level: level}
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.log.Errorf("query failed after %s (%d rows): %s: %v", elapsed, rows, sql, err)
		return
	}
	l.log.Debugf("query took %s (%d rows): %s", elapsed, rows, sql)
}
