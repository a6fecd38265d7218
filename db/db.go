package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"yuu/config"
	"yuu/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "modernc.org/sqlite"
)

// Connect abre conexão com DB (sqlite3 por padrão) e faz automigrate.
// No sqlite o automigrate é sempre feito; no postgres apenas com AUTOMIGRATE=1.
func Connect(conf config.Configuration) (*gorm.DB, error) {
	database := conf.Database
	if database == "" {
		database = "sqlite3"
	}

	var (
		db  *gorm.DB
		err error
	)

	if database == "postgres" || database == "postgresql" {
		log.Println("Utilizando conexão com o postgresql...")
		path := "host=" + conf.DbHost + " port=" + conf.DbPort
		path += " user=" + conf.DbUser + " dbname=" + conf.DbName
		path += " password=" + conf.DbPass
		db, err = gorm.Open("postgres", path)
		if err == nil && getenv("AUTOMIGRATE", "0") == "1" {
			err = Migrate(db)
		}
	} else {
		log.Println("Utilizando conexão com o sqlite3...")
		if dir := filepath.Dir(conf.DbPath); dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
		db, err = OpenSQLite(conf.DbPath)
	}

	if err != nil {
		log.Println("Got error when connect database, the error is: " + err.Error())
		return nil, err
	}

	db.LogMode(getenv("DB_LOG", "0") == "1")
	return db, nil
}

// OpenSQLite abre um sqlite (driver pure-Go) e migra o schema. Aceita ":memory:".
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite aceita um único escritor; com :memory: cada conexão seria um banco novo
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open("sqlite3", sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Dream{},
	).Error
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
