package main

import "github.com/tilelens/backend/internal/cli"

func main() {
	cli.Execute()
}
