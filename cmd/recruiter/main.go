/*
Package main provides the CLI entry point for Recruiter.
*/
package main

import (
	"os"

	"github.com/oarkflow/recruiter/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
