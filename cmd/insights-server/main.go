// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "insights-server",
	Short: "Natural-language business-intelligence service",
	Long: `insights-server answers free-form questions about retail data with
structured intents, AI-generated insights, recommendations, and chart
specifications.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		svc, err := insights.New(cfg)
		if err != nil {
			return fmt.Errorf("initializing service: %w", err)
		}

		return svc.Run()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
