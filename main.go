package main

import "cmlsync/cmd"

func main() {
	cmd.Execute()
}
