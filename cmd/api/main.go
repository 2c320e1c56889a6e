package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/sudo-init-do/offerhub/internal/db"
	"github.com/sudo-init-do/offerhub/internal/server"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	db.Init()

	e := server.New()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("API server listening on :%s", port)
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
