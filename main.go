package main

import (
	"github.com/joho/godotenv"
	"github.com/opsmind-ai/kb-gateway/cmd"
)

func main() {
	// Optional; secrets may also come from the real environment.
	_ = godotenv.Load()
	cmd.Execute()
}
