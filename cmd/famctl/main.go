/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/famblob/cmd/famctl/cmd"
	"github.com/ssargent/famblob/pkg/di"
)

func main() {
	// Initialize dependency injection container
	container := di.NewContainer()

	// Set the container in the cmd package
	cmd.SetContainer(container)

	cmd.Execute()
}
