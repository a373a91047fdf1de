package main

import (
	"os"

	"github.com/kbukum/apicall/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
