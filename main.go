package main

import "cdnkit/cmd"

func main() {
	cmd.Execute()
}
