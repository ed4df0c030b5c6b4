package main

import "github.com/mcoot/greenlight/internal/cli"

func main() {
	cli.Execute()
}
