package main

import "github.com/zalepa/cocstats/cmd"

func main() {
	cmd.Execute()
}
