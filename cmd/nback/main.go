package main

import "github.com/berth-dev/nback/internal/cli"

func main() {
	cli.Execute()
}
