package idmap

import (
	"fmt"

	"github.com/dbehnke/dmrcore/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// radioRecord is the GORM model backing the on-disk ID cache: one row per
// known radio ID, grounded on the teacher's DMRUserRepository but scoped
// down to the fields this core actually needs (id and display name).
type radioRecord struct {
	ID   uint32 `gorm:"primaryKey"`
	Name string
}

func (radioRecord) TableName() string { return "dmrcore_idmap_cache" }

// Store is an optional SQLite-backed cache for a Map: a seed/refresh path,
// never on the hot path of burst decode. It uses the teacher's
// gorm.io/gorm + gorm.io/driver/sqlite + modernc.org/sqlite stack, the
// same pure-Go driver combination as its pkg/database.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// OpenStore opens (creating if necessary) a SQLite-backed ID cache at
// path.
func OpenStore(path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Discard()
	}
	gormLog := gormlogger.New(gormLogAdapter{log: log}, gormlogger.Config{
		LogLevel: gormlogger.Warn,
	})

	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: path}, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("idmap: open store: %w", err)
	}
	if err := db.AutoMigrate(&radioRecord{}); err != nil {
		return nil, fmt.Errorf("idmap: migrate store: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Upsert inserts or updates one radio ID's cached name.
func (s *Store) Upsert(id uint32, name string) error {
	return s.db.Save(&radioRecord{ID: id, Name: name}).Error
}

// LoadInto populates m with every cached binding.
func (s *Store) LoadInto(m *Map) error {
	var records []radioRecord
	if err := s.db.FindInBatches(&records, 1000, func(tx *gorm.DB, batch int) error {
		for _, r := range records {
			m.Add(r.ID, r.Name)
		}
		return nil
	}).Error; err != nil {
		return fmt.Errorf("idmap: load store: %w", err)
	}
	return nil
}

// gormLogAdapter routes GORM's log output through pkg/logger, the same
// adapter shape the teacher's database package uses.
type gormLogAdapter struct {
	log *logger.Logger
}

func (a gormLogAdapter) Printf(format string, args ...interface{}) {
	a.log.Warn(fmt.Sprintf(format, args...))
}
