// Package main provides the VeriGo CLI.
package main

import (
	"fmt"
	"os"

	"github.com/verigo-ml/verigo/internal/backend/cpu"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("VeriGo %s\n", version)
			return
		case "backend":
			fmt.Println(cpu.New().Description())
			return
		}
	}

	fmt.Println("VeriGo - Neural Network Verification for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  backend    Show the detected compute backend")
	fmt.Println("")
	fmt.Println("See examples/mnist-verify for the verification demo.")
}
