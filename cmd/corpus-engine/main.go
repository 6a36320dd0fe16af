// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the corpus-engine CLI.
// Implements: prd001-harvest, prd002-dedup, prd003-venues, prd004-domains,
// prd005-discovery, prd006-download, prd007-extraction, prd008-corpus,
// prd009-reporting (CLI surface).
// See docs/ARCHITECTURE.md § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/corpus-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return os.Getenv(envKey(key))
}

// envKey maps a secret filename to its environment variable form, e.g.
// "serpapi-key" -> "SERPAPI_KEY".
func envKey(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == '-':
			c = '_'
		case 'a' <= c && c <= 'z':
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// rootCmd is the base command for the corpus-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "corpus-engine",
	Short: "Build and analyze an institutional publication corpus",
	Long: `corpus-engine builds a publication corpus for a research institution:
it harvests metadata from bibliographic APIs, deduplicates records across
sources, normalizes venues, classifies papers into research domains,
locates and downloads open-access PDFs, extracts text and suppression
indicators, and stores everything in a searchable local index.

Each pipeline stage is a subcommand: harvest, dedup, venues, classify,
discover, download, extract, corpus, citations, and report. Stages pass
JSON paper snapshots between each other under the corpus directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.LoadEnv(".env"); err != nil {
			return err
		}
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./corpus-engine.yaml or ~/.config/corpus-engine/config.yaml)")
	rootCmd.PersistentFlags().String("corpus-dir", "corpus", "base directory for corpus files (contains papers/, pdfs/, index/)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("corpus-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "corpus-engine"))
		}
	}

	viper.SetEnvPrefix("CORPUS_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// corpusDir returns the base corpus directory from flag or config.
func corpusDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("corpus-dir")
	if dir == "" {
		dir = viper.GetString("corpus_dir")
	}
	if dir == "" {
		dir = "corpus"
	}
	return dir
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
