/*
Copyright © 2025 Galaxy Core Platform
*/
package main

import (
	"github.com/Galaxy-Core-Platform/sdlc-agent/cmd"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}
