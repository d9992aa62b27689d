package main

import "raceconnect/cmd"

func main() {
	cmd.Execute()
}
