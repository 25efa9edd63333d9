package main

import (
	"log"

	"github.com/Ashenafi-pixel/gamecrafter-math-engine/config"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/server"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env so DATABASE_URL is set: engine/.env, cwd .env, or project root .env/.env.local
	_ = godotenv.Load(".env")
	_ = godotenv.Load("engine/.env")
	_ = godotenv.Load("../.env")
	_ = godotenv.Load("../.env.local")
	cfg := config.Load()
	srv, err := server.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
