package main

import "github.com/kdimtricp/hoverlabel/internal/cli"

func main() {
	cli.Execute()
}
