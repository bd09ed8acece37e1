package main

import "notehero/cmd"

func main() {
	cmd.Execute()
}
