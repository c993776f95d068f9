package main

import "github.com/BitCodeHub/analytics-storyteller/cmd"

func main() {
	cmd.Execute()
}
