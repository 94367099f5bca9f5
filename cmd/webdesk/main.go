package main

import "github.com/giraffenet/webdesk/cmd/webdesk/commands"

func main() {
	commands.Execute()
}
