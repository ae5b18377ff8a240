/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for datagrub-cli
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    cli/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"github.com/opencircle/datagrub/cli/cmd"
)

func main() {
	cmd.Execute()
}
