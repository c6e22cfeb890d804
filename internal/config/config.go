package config

import (
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the database. DATABASE_URL selects Postgres; without it the
// server falls back to a local SQLite file (SQLITE_PATH, default
// warehouse.db).
func InitDB() *gorm.DB {
	var (
		db  *gorm.DB
		err error
	)

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	} else {
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "warehouse.db"
		}
		log.Println("DATABASE_URL not set, using SQLite at", path)
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	}

	if err != nil {
		log.Fatal("failed to connect database: ", err)
	}
	return db
}
