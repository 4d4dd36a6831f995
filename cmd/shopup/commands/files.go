package commands

import (
	"strconv"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewFilesCommand creates the files command group.
func NewFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"file"},
		Short:   "Inspect and update store files",
		Long:    "Look up files by ID, wait for their CDN URL and change their alt text",
	}

	cmd.AddCommand(newFilesGetCommand())
	cmd.AddCommand(newFilesWaitCommand())
	cmd.AddCommand(newFilesUpdateCommand())

	return cmd
}

func appendAssetRows(table *tablewriter.Table, asset *shopify.Asset) {
	_ = table.Append([]string{"ID", asset.ID})
	_ = table.Append([]string{"Status", string(asset.Status)})
	_ = table.Append([]string{"Alt", orNA(asset.Alt)})
	_ = table.Append([]string{"URL", orNA(asset.URL())})

	if !asset.CreatedAt.IsZero() {
		_ = table.Append([]string{"Created", asset.CreatedAt.Format(time.RFC3339)})
	}

	for _, fileErr := range asset.FileErrors {
		_ = table.Append([]string{"Error", fileErr.Code + ": " + fileErr.Message})
	}
}

func newFilesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE_ID",
		Short: "Get file details",
		Long:  "Display the status and URL of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFactory(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer client.Close()

			asset, err := client.Files().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), asset, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")
				appendAssetRows(table, asset)

				return nil
			})
		},
	}
}

func newFilesWaitCommand() *cobra.Command {
	var maxWait, interval time.Duration

	cmd := &cobra.Command{
		Use:   "wait FILE_ID",
		Short: "Wait for a file's CDN URL",
		Long:  "Poll a file until its CDN URL is available, it fails, or --max-wait elapses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFactory(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := client.Files().WaitForURL(cmd.Context(), args[0], maxWait, interval)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), result, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")
				_ = table.Append([]string{"ID", args[0]})
				_ = table.Append([]string{"URL", orNA(result.URL)})
				_ = table.Append([]string{"Timed Out", strconv.FormatBool(result.TimedOut)})
				_ = table.Append([]string{"Queries", strconv.Itoa(result.Attempts)})
				_ = table.Append([]string{"From Cache", strconv.FormatBool(result.FromCache)})

				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&maxWait, "max-wait", constants.DefaultPollMaxWait, "how long to wait")
	cmd.Flags().DurationVar(&interval, "interval", constants.DefaultPollInterval, "delay between status queries")

	return cmd
}

func newFilesUpdateCommand() *cobra.Command {
	var alt, filename string

	cmd := &cobra.Command{
		Use:   "update FILE_ID",
		Short: "Update a file",
		Long:  "Change the alt text or filename of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &shopify.FileUpdateRequest{ID: args[0]}

			if cmd.Flags().Changed("alt") {
				request.Alt = &alt
			}

			if cmd.Flags().Changed("filename") {
				request.Filename = &filename
			}

			client, err := clientFactory(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer client.Close()

			asset, err := client.Files().Update(cmd.Context(), request)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), asset, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")
				appendAssetRows(table, asset)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&alt, "alt", "", "new alt text")
	cmd.Flags().StringVar(&filename, "filename", "", "new filename")

	return cmd
}
