package main

import (
	"newsengine/cmd/newsengine/cmd"
	"newsengine/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
