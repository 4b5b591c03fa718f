package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relnotes",
	Short: "Extract release notes from CHANGELOG.md",
	Long:  `A tool for extracting per-version release notes from a Keep a Changelog formatted markdown file.`,
}

var showCmd = &cobra.Command{
	Use:   "show VERSION",
	Short: "Print one version's release notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, err := load(cmd)
		if err != nil {
			return err
		}
		release := notes.Find(args[0])
		if release == nil {
			return fmt.Errorf("version %s not found in changelog", args[0])
		}
		printRelease(notes, release)
		return nil
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the newest released version's notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, err := load(cmd)
		if err != nil {
			return err
		}
		release := notes.Latest()
		if release == nil {
			return fmt.Errorf("changelog has no released versions")
		}
		printRelease(notes, release)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all versions in the changelog",
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, err := load(cmd)
		if err != nil {
			return err
		}
		for _, release := range notes.Releases {
			if release.Date != "" {
				fmt.Printf("%s (%s)\n", release.Version, release.Date)
			} else {
				fmt.Println(release.Version)
			}
		}
		return nil
	},
}

func load(cmd *cobra.Command) (*Notes, error) {
	file, _ := cmd.Flags().GetString("file")
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	notes, err := ParseNotes(content)
	if err != nil {
		return nil, fmt.Errorf("parsing changelog: %w", err)
	}
	return notes, nil
}

func printRelease(notes *Notes, release *Release) {
	if release.Date != "" {
		fmt.Printf("## [%s] - %s\n\n", release.Version, release.Date)
	} else {
		fmt.Printf("## [%s]\n\n", release.Version)
	}
	fmt.Println(release.Body)
	if url, ok := notes.Links[release.Version]; ok {
		fmt.Printf("\n[%s]: %s\n", release.Version, url)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("file", "f", "CHANGELOG.md", "Path to the changelog file")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
