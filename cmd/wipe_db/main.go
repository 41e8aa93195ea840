package main

import (
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-sql-driver/mysql"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/schemaforge/backend/pkg/constants"
)

// Development helper: drops the application tables so the next server start
// recreates them from scratch.
func main() {
	paths := []string{"../.env", ".env", "../../.env"}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			log.Printf("Loaded .env from %s", p)
			break
		}
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	database := os.Getenv("DB_NAME")

	if port == "" {
		port = "4000"
	}
	if database == "" {
		database = "schemaforge"
	}

	mysql.RegisterTLSConfig("remote", &tls.Config{
		MinVersion: tls.VersionTLS12,
	})

	tlsParam := "&tls=remote"
	if host == "127.0.0.1" || host == "localhost" {
		tlsParam = ""
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local%s",
		user, password, host, port, database, tlsParam)

	if host == "" || user == "" {
		log.Println("Warning: DB_HOST or DB_USER not set, connection might fail")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping db: %v", err)
	}

	log.Println("⚠️  Wiping application tables...")

	tables := []string{
		constants.TableUsageEvent,
		constants.TableSession,
		constants.TableUser,
		constants.TablePlan,
	}

	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS `%s`", table)); err != nil {
			log.Printf("Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("Dropped table: %s", table)
		}
	}

	log.Println("✅ Database wiped successfully.")
}
