// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"impulse/internal/vm"
)

func main() {
	requested := ""
	if len(os.Args) > 1 {
		requested = os.Args[1]
	}

	ran := 0
	for _, s := range scenarios {
		if requested != "" && requested != s.name {
			continue
		}
		runScenario(s)
		ran++
	}

	if requested != "" && ran == 0 {
		color.Red("unknown scenario %q", requested)
		fmt.Println("available scenarios:")
		for _, s := range scenarios {
			fmt.Printf("  %s\n", s.name)
		}
		os.Exit(1)
	}
}

func runScenario(s scenario) {
	machine := vm.New()
	load := machine.Load(s.module())
	if !load.Success {
		color.Red("❌ %s: load failed", s.name)
		for _, d := range load.Diagnostics {
			fmt.Printf("  %s\n", d)
		}
		return
	}

	result := machine.Run("d", s.entry)
	fmt.Printf("%s: %s", s.name, result.Summary())
	switch result.Status.String() {
	case "success":
		color.Green("✅ %s succeeded", s.name)
	default:
		color.Red("❌ %s: %s", s.name, result.Status.String())
	}
}
