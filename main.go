package main

import (
	"github.com/josephlewis42/sandsh/cmd"
)

func main() {
	cmd.Execute()
}
