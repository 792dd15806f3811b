package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/kilianp07/routeopt/cmd"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
