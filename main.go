// Package main is the entry point for sipurim.
package main

import (
	"github.com/samber/lo"

	"github.com/nadav-o/sipurim/cmd"
	"github.com/nadav-o/sipurim/internal/config"
	"github.com/nadav-o/sipurim/internal/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
