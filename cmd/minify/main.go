package main

import (
	"fmt"
	"log"
	"os"

	"github.com/woozymasta/dzmeasure/internal/server"
)

// Writes the page served at / so it can be hosted without the API server.
func main() {
	out := "assets/index.html"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}

	page, err := server.BuildIndex(server.NewMinifier())
	if err != nil {
		log.Fatal("error build index:", err)
	}

	if err := os.WriteFile(out, page, 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Println("minify done:", out)
}
