package main

import "github.com/emiliopalmerini/chatsrt/internal/cli"

func main() {
	cli.Execute()
}
