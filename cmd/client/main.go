package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/atinyakov/handmind/internal/client"
)

var (
	version   string
	buildDate string
)

// main parses command-line flags and starts the interactive shell.
func main() {
	var (
		baseURL     string
		caFile      string
		sessionFile string
		showVer     bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:3001", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to an extra CA cert to trust (for dev HTTPS)")
	flag.StringVar(&sessionFile, "session", client.DefaultSessionPath(), "path to the session file")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("HandMind Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	httpClient, err := client.NewHTTPClient(caFile)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shell := client.NewShell(client.NewAPI(baseURL, httpClient), &client.SessionStore{Path: sessionFile}, os.Stdin, os.Stdout)
	if err := shell.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
