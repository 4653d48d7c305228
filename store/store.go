// Package store persists the box collection in a sqlite table named box.
package store

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/toxichemicals/GO/holy-boxes/physics"
)

// insertBatch keeps each INSERT under sqlite's bound-variable limit.
const insertBatch = 100

const schema = "CREATE TABLE IF NOT EXISTS `box` (" +
	"`x` REAL NOT NULL DEFAULT 0," +
	"`y` REAL NOT NULL DEFAULT 0," +
	"`z` REAL NOT NULL DEFAULT 0," +
	"`yaw` REAL NOT NULL DEFAULT 0," +
	"`pitch` REAL NOT NULL DEFAULT 0," +
	"`roll` REAL NOT NULL DEFAULT 0," +
	"`red` REAL NOT NULL DEFAULT 1," +
	"`green` REAL NOT NULL DEFAULT 0," +
	"`blue` REAL NOT NULL DEFAULT 0)"

// box is one row. Angles are radians.
type box struct {
	X, Y, Z          float32
	Yaw, Pitch, Roll float32
	Red, Green, Blue float32
}

func (box) TableName() string { return "box" }

// Store is an open box database.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path and makes sure the box table
// exists.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stderr, "store: ", log.LstdFlags|log.Lmsgprefix),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if err := db.Exec(schema).Error; err != nil {
		closeDB(db)
		return nil, errors.Wrap(err, "create box table")
	}
	return &Store{db: db}, nil
}

// Load returns every stored box in insertion order.
func (s *Store) Load(ctx context.Context) ([]physics.Record, error) {
	var rows []box
	if err := s.db.WithContext(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "select boxes")
	}
	records := make([]physics.Record, 0, len(rows))
	if err := copier.Copy(&records, &rows); err != nil {
		return nil, errors.Wrap(err, "copy rows")
	}
	return records, nil
}

// Save replaces the stored boxes with records in one transaction.
func (s *Store) Save(ctx context.Context, records []physics.Record) error {
	rows := make([]box, 0, len(records))
	if err := copier.Copy(&rows, &records); err != nil {
		return errors.Wrap(err, "copy records")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM `box`").Error; err != nil {
			return errors.Wrap(err, "clear boxes")
		}
		if len(rows) == 0 {
			return nil
		}
		return errors.Wrap(tx.CreateInBatches(rows, insertBatch).Error, "insert boxes")
	})
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return closeDB(s.db)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
