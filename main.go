package main

import (
	"github.com/axellelanca/portfolio/cmd"
	_ "github.com/axellelanca/portfolio/cmd/cli"
	_ "github.com/axellelanca/portfolio/cmd/server"
)

func main() {
	cmd.Execute()
}
