package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewImagesCommand creates the images command group.
func NewImagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"image"},
		Short:   "Manage product images",
		Long:    "List product images and change which variants they belong to",
	}

	cmd.AddCommand(newImagesListCommand())
	cmd.AddCommand(newImagesReassociateCommand())

	return cmd
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	return strings.Join(parts, ",")
}

func appendImageRow(table *tablewriter.Table, image shopify.ProductImage) {
	_ = table.Append([]string{
		strconv.FormatInt(image.ID, 10),
		strconv.Itoa(image.Position),
		orNA(image.Alt),
		formatIDs(image.VariantIDs),
		image.Src,
	})
}

func parseResourceID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", constants.ErrInvalidResourceID, value)
	}

	return id, nil
}

func newImagesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list PRODUCT_ID",
		Short: "List product images",
		Long:  "List the images of a product with their variant associations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseResourceID(args[0])
			if err != nil {
				return err
			}

			client, err := clientFactory(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer client.Close()

			images, err := client.ProductImages().List(cmd.Context(), productID)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), images, func(table *tablewriter.Table) error {
				table.Header("ID", "Position", "Alt", "Variants", "Src")

				for _, image := range images {
					appendImageRow(table, image)
				}

				return nil
			})
		},
	}
}

func newImagesReassociateCommand() *cobra.Command {
	var variants []string

	cmd := &cobra.Command{
		Use:   "reassociate PRODUCT_ID IMAGE_ID",
		Short: "Change an image's variants",
		Long:  "Replace the set of variants an image belongs to; no --variant clears it",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseResourceID(args[0])
			if err != nil {
				return err
			}

			imageID, err := parseResourceID(args[1])
			if err != nil {
				return err
			}

			variantIDs, err := parseIDs(variants)
			if err != nil {
				return err
			}

			client, err := clientFactory(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer client.Close()

			image, err := client.Uploader().ReassociateVariants(cmd.Context(), productID, imageID, variantIDs)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), image, func(table *tablewriter.Table) error {
				table.Header("ID", "Position", "Alt", "Variants", "Src")
				appendImageRow(table, *image)

				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&variants, "variant", nil, "variant ids (repeatable or comma separated)")

	return cmd
}
