package main

import (
	"db-factory/cmd"
)

func main() {
	cmd.Execute()
}
