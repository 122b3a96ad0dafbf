package main

import "github.com/sajjad-MoBe/tuplespace/cmd"

func main() {
	cmd.Execute()
}
