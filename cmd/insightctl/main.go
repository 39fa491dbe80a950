// insightctl is a CLI client for the insight service REST API, mostly for
// local development and smoke testing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindloom/mindloom/server/internal/auth"
)

var (
	apiFlag string
	keyFlag string
	rootCmd = &cobra.Command{
		Use:   "insightctl",
		Short: "CLI client for the insight service REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Insight service base URL")
	rootCmd.PersistentFlags().StringVarP(&keyFlag, "key", "k", auth.LocalDevFreeAPIKey, "API key")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate this week's insight",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(newClient(), os.Stdout)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored insights, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return runList(newClient(), limit, os.Stdout)
		},
	}
	listCmd.Flags().IntP("limit", "n", 0, "Maximum number of insights to return")

	deleteCmd := &cobra.Command{
		Use:   "delete <insightId>",
		Short: "Delete a stored insight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(newClient(), args[0], os.Stdout)
		},
	}

	moodCmd := &cobra.Command{
		Use:   "mood",
		Short: "Log a mood entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, _ := cmd.Flags().GetString("day")
			emotion, _ := cmd.Flags().GetString("emotion")
			intensity, _ := cmd.Flags().GetInt("intensity")
			note, _ := cmd.Flags().GetString("note")
			return runLogMood(newClient(), day, emotion, intensity, note, os.Stdout)
		},
	}
	moodCmd.Flags().StringP("day", "d", "", "Entry day (YYYY-MM-DD, default today)")
	moodCmd.Flags().StringP("emotion", "e", "", "Emotion label (required)")
	moodCmd.Flags().IntP("intensity", "i", 5, "Intensity 1-10")
	moodCmd.Flags().String("note", "", "Optional note")
	_ = moodCmd.MarkFlagRequired("emotion")

	rootCmd.AddCommand(generateCmd, listCmd, deleteCmd, moodCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
