package db

import (
	"context"
	"fmt"
	"log"

	"feedsync/config"
	"feedsync/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// Manager владеет подключением gorm к локальному хранилищу
type Manager struct {
	ORM      *gorm.DB
	driver   string
	resolver bool
}

func dialector(driver, target string) (gorm.Dialector, error) {
	switch driver {
	case "", "sqlite":
		return sqlite.Open(sqliteDSN(target)), nil
	case "postgres":
		return postgres.Open(target), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
}

// Open подключается к хранилищу и применяет схему.
// Ошибка здесь фатальна для процесса: без хранилища ядро не работает.
func Open(conf config.StoreConfig) (*Manager, error) {
	target := conf.Path
	if conf.Driver == "postgres" {
		target = conf.DSN
	}
	if target == "" {
		return nil, fmt.Errorf("store target is empty for driver %q", conf.Driver)
	}

	primary, err := dialector(conf.Driver, target)
	if err != nil {
		return nil, err
	}

	orm, err := gorm.Open(primary, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
			NoLowerCase:   false,
		},
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	m := &Manager{ORM: orm, driver: conf.Driver}
	if m.driver == "" {
		m.driver = "sqlite"
	}

	// Реплики для чтения
	if len(conf.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(conf.Replicas))
		for _, r := range conf.Replicas {
			d, err := dialector(conf.Driver, r)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, d)
		}
		err = orm.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("failed to register read replicas: %w", err)
		}
		m.resolver = true
	}

	if m.driver == "sqlite" {
		if err := ConfigureSQLite(orm); err != nil {
			return nil, err
		}
	}

	if err := orm.AutoMigrate(&models.Post{}, &models.Like{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := CreateLikesIndex(orm); err != nil {
		return nil, err
	}

	log.Printf("Store opened: driver=%s replicas=%d", m.driver, len(conf.Replicas))
	return m, nil
}

// GetReadOnlyDB возвращает подключение для чтения (реплики, если заданы)
func (m *Manager) GetReadOnlyDB(ctx context.Context) *gorm.DB {
	if m.resolver {
		return m.ORM.WithContext(ctx).Clauses(dbresolver.Read)
	}
	return m.ORM.WithContext(ctx)
}

// GetWriteDB возвращает подключение для записи (основная БД)
func (m *Manager) GetWriteDB(ctx context.Context) *gorm.DB {
	if m.resolver {
		return m.ORM.WithContext(ctx).Clauses(dbresolver.Write)
	}
	return m.ORM.WithContext(ctx)
}

// Close закрывает пул соединений
func (m *Manager) Close() error {
	sqlDB, err := m.ORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
