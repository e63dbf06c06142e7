package main

import (
	cmd "github.com/rohmanhakim/wiki-crawler/internal/cli"
)

func main() {
	cmd.Execute()
}
