package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// configWatchCmd represents the config watch command
var configWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a stack file and revalidate it on change",
	Long: `Watch a stack file and revalidate it when it changes.

Useful while editing a stack: every save reports either that the stack is
still valid or the full list of problems.

Example:
  gantryctl config watch -f examples/paper-trading/stack.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")

		if err := watchStack(file); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch stack: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configCmd.AddCommand(configWatchCmd)
}

func watchStack(file string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(file); err != nil {
		return fmt.Errorf("failed to watch file %s: %w", file, err)
	}

	fmt.Printf("Watching %s for changes\n", file)
	report := func() {
		if _, err := validateStack(file); err != nil {
			fmt.Fprintf(os.Stderr, "[%s] %v\n", time.Now().Format(time.RFC3339), err)
			return
		}
		fmt.Printf("[%s] %s is valid\n", time.Now().Format(time.RFC3339), file)
	}
	report()

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				report()
				// Editors that replace the file drop the watch; re-add it.
				_ = watcher.Add(file)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
		case <-sigChan:
			fmt.Println("\nShutting down...")
			return nil
		}
	}
}
