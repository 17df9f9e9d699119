// Package products implements the commands that print stored products and
// their availability history.
package products

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/restock/cmd/common"
	"github.com/jonesrussell/north-cloud/restock/internal/normalize"
	"github.com/jonesrussell/north-cloud/restock/internal/store"
)

// ListCommand creates the products command.
func ListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List stored products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			s, _, closeDB, err := deps.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			list, err := s.ListProducts(cmd.Context())
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No products stored. Run `restock discover` first.")
				return nil
			}

			common.RenderProducts(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

// HistoryCommand creates the history command.
func HistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <product-id>",
		Short: "Show the availability history of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := normalize.ParseIdentifier(args[0])
			if err != nil {
				return err
			}

			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			s, _, closeDB, err := deps.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			product, err := s.GetProduct(cmd.Context(), productID)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("product %d is not stored: %w", productID, err)
			}
			if err != nil {
				return fmt.Errorf("get product: %w", err)
			}

			history, err := s.AvailabilityHistory(cmd.Context(), productID)
			if err != nil {
				return fmt.Errorf("availability history: %w", err)
			}

			common.RenderHistory(cmd.OutOrStdout(), product, history)
			return nil
		},
	}
}
