package main

import (
	"github.com/oneconcern/lineagesync/cmd/lineagesync/cmd"
)

func main() {
	cmd.Execute()
}
