package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/sudo-init-do/offerhub/internal/db"
)

func main() {
	username := flag.String("username", "", "Username of the account to grant staff rights")
	flag.Parse()

	if *username == "" {
		log.Fatalf("usage: go run cmd/adminutil/promote_staff/main.go -username alice")
	}

	_ = godotenv.Load()
	db.Init()

	ct, err := db.Conn.Exec(context.Background(),
		`UPDATE users SET is_staff = TRUE WHERE username = $1`, *username)
	if err != nil {
		log.Fatalf("failed to promote user: %v", err)
	}
	if ct.RowsAffected() == 0 {
		log.Fatalf("no user found with username: %s", *username)
	}

	fmt.Printf("User %s now has staff rights.\n", *username)
}
