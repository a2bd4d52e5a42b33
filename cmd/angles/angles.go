package main

import (
	"fmt"
	"os"

	"angles/internal/cli"

	"github.com/joho/godotenv"
)

const usage = `angles compiles pseudo-HTML tags and conditional attributes into Django template directives.

Usage:
  angles transpile [--dir <templates>] [--out <dir>] [file...]
  angles check [--json] [--dir <templates>] [file...]
  angles mappers [--json]
  angles serve [--port <port>]
  angles version`

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "transpile":
		cli.HandleTranspile(os.Args[2:])
	case "check":
		cli.HandleCheck(os.Args[2:])
	case "mappers":
		cli.HandleMappers(os.Args[2:])
	case "serve":
		cli.HandleServe(os.Args[2:])
	case "version", "--version":
		cli.HandleVersion()
	case "help", "--help", "-h":
		fmt.Println(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}
}
