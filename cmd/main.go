// Package main is the production entry point for the SpecViz audio visualizer.
//
// SpecViz plays a local audio file and draws its live frequency spectrum:
// - Event-driven communication between the playback engine and the UI
// - Dependency injection for testability
// - MVP pattern for UI decoupling
//
// Build:
//
//	go build -o build/specviz ./cmd
//
// Run:
//
//	./build/specviz
//
// Set SPECVIZ_MOCK_AUDIO=true to run with a silent mock engine on machines
// without an audio output device.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/tejashwikalptaru/specviz/internal/app"
)

func main() {
	// Create configuration from the environment
	config := app.DefaultConfig()

	// Create the application with dependency injection
	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		fmt.Println("\nShutting down...")
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
		fmt.Println("Shutdown complete")
	}()

	// Run application (blocks until the window closed)
	if err := application.Run(); err != nil {
		log.Printf("Application error: %v", err)
	}

	fmt.Println("Application exited cleanly")
}
