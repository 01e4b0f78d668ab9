package main

import "fossilbed/strata/cmd"

func main() {
	cmd.Execute()
}
