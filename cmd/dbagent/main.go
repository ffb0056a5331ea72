package main

import "github.com/Rrens/db-assistant/internal/cli"

func main() {
	cli.Execute()
}
