package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/discoverymesh/discoverymesh/config"
	"github.com/discoverymesh/discoverymesh/core"
	"github.com/spf13/cobra"
)

var (
	askUserID  string
	askCatalog string
)

// catalogEntry is one product in the --catalog JSON file. The description
// is the text embedded for retrieval.
type catalogEntry struct {
	core.Product
	Description string `json:"description"`
}

var askCmd = &cobra.Command{
	Use:   "ask [text...]",
	Short: "Run a single discovery request and print the JSON response",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New(configPath)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		mesh, err := buildMesh(cfg, logger)
		if err != nil {
			return err
		}
		defer mesh.Close()

		if askCatalog != "" {
			data, err := os.ReadFile(askCatalog)
			if err != nil {
				return err
			}
			var entries []catalogEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("parse catalog %s: %w", askCatalog, err)
			}
			for _, e := range entries {
				if err := mesh.IndexProduct(cmd.Context(), e.Product, e.Description); err != nil {
					return fmt.Errorf("index product %s: %w", e.ID, err)
				}
			}
			logger.Info("catalog indexed", "path", askCatalog, "products", len(entries))
		}

		resp := mesh.ProcessRequest(cmd.Context(), strings.Join(args, " "), askUserID, nil)

		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askUserID, "user", "cli", "user id for session history")
	askCmd.Flags().StringVar(&askCatalog, "catalog", "", "JSON file of products to index before asking")
	rootCmd.AddCommand(askCmd)
}
