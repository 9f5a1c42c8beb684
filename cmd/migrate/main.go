// Command migrate manages the reference store schema with goose.
//
//	migrate [up|down|status|version] [dir]
//
// Without dir the migrations embedded in the binary are used.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/ignite/gameplan-importer/migrations"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	command, dir, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}
	log.Println("Connected to database")

	if err := run(db, command, dir); err != nil {
		log.Fatalf("migrate %s: %v", command, err)
	}
	log.Println("Migrations complete")
}

func parseArgs(args []string) (command, dir string, err error) {
	command, dir = "up", "."
	if len(args) > 0 {
		command = args[0]
	}
	switch command {
	case "up", "down", "status", "version":
	default:
		return "", "", fmt.Errorf("unknown command %q (want up, down, status or version)", command)
	}
	if len(args) > 1 {
		dir = args[1]
	}
	return command, dir, nil
}

// configure points goose at dir on disk, or at the embedded files when dir
// is ".".
func configure(dir string) error {
	if dir == "." {
		goose.SetBaseFS(migrations.FS)
	} else {
		goose.SetBaseFS(nil)
	}
	return goose.SetDialect("postgres")
}

func run(db *sql.DB, command, dir string) error {
	if err := configure(dir); err != nil {
		return err
	}
	switch command {
	case "down":
		return goose.Down(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "version":
		return goose.Version(db, dir)
	default:
		return goose.Up(db, dir)
	}
}
