package main

import (
	"github.com/cesto93/ai-agile-dev/cmd"
	"github.com/cesto93/ai-agile-dev/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}
