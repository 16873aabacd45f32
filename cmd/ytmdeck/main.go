package main

import "github.com/tessro/ytmdeck/internal/cli"

func main() {
	cli.Execute()
}
