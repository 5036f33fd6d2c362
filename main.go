package main

import "github.com/optiq-dev/optiq/cmd"

func main() {
	cmd.Execute()
}
