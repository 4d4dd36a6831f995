package commands

import (
	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewMetafieldsCommand creates the metafields command group.
func NewMetafieldsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "metafields",
		Aliases: []string{"mf"},
		Short:   "Manage metafields",
		Long:    "Write and list metafields on files and other resources",
	}

	cmd.AddCommand(newMetafieldsSetCommand())
	cmd.AddCommand(newMetafieldsListCommand())

	return cmd
}

func appendMetafieldRow(table *tablewriter.Table, metafield shopify.Metafield) {
	_ = table.Append([]string{metafield.Namespace, metafield.Key, metafield.Value, metafield.Type})
}

func newMetafieldsSetCommand() *cobra.Command {
	var metafieldType string

	cmd := &cobra.Command{
		Use:   "set OWNER_ID NAMESPACE.KEY=VALUE...",
		Short: "Set metafields",
		Long:  "Write one or more metafields on an owner; existing values are overwritten",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := parseMetafields(args[1:], metafieldType)
			if err != nil {
				return err
			}

			client, err := clientFactory(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer client.Close()

			written := make([]shopify.Metafield, 0, len(inputs))

			for _, input := range inputs {
				metafield, err := client.Metafields().Set(cmd.Context(), args[0], input)
				if err != nil {
					return err
				}

				written = append(written, *metafield)
			}

			return render(cmd.OutOrStdout(), written, func(table *tablewriter.Table) error {
				table.Header("Namespace", "Key", "Value", "Type")

				for _, metafield := range written {
					appendMetafieldRow(table, metafield)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&metafieldType, "type", constants.MetafieldTypeSingleLine, "metafield type")

	return cmd
}

func newMetafieldsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list OWNER_ID",
		Short: "List metafields",
		Long:  "List every metafield on an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFactory(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer client.Close()

			metafields, err := client.Metafields().GetAll(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), metafields, func(table *tablewriter.Table) error {
				table.Header("Namespace", "Key", "Value", "Type")

				for _, metafield := range metafields {
					appendMetafieldRow(table, metafield)
				}

				return nil
			})
		},
	}
}
