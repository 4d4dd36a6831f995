package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const masked = "***"

// Config represents the CLI configuration.
type Config struct {
	Shop       string `json:"shop,omitempty"        yaml:"shop,omitempty"`
	Token      string `json:"token,omitempty"       yaml:"token,omitempty"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	Output     string `json:"output,omitempty"      yaml:"output,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the shop, access token and output settings",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigSetTokenCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with the access token masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Token != "" {
				config.Token = masked
			}

			return render(cmd.OutOrStdout(), config, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")
				_ = table.Append([]string{"Shop", orNA(config.Shop)})
				_ = table.Append([]string{"Token", orNA(config.Token)})
				_ = table.Append([]string{"API Version", orNA(config.APIVersion)})
				_ = table.Append([]string{"Output", orNA(config.Output)})
				_ = table.Append([]string{"Config File", orNA(viper.ConfigFileUsed())})

				return nil
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set shop, api_version or output in the configuration file",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %s\n", args[0], args[1])

			return nil
		},
	}
}

func newConfigSetTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token [TOKEN]",
		Short: "Store the Admin API access token",
		Long:  "Store the Admin API access token; prompts without echo when TOKEN is omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				var err error

				token, err = readToken(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}

			token = strings.TrimSpace(token)
			if token == "" {
				return constants.ErrNoTokenConfigured
			}

			config := loadConfig()
			config.Token = token

			err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Access token saved")

			return nil
		},
	}
}

// readToken reads the token without echo from a terminal, or a line from in.
func readToken(in io.Reader, out io.Writer) (string, error) {
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		_, _ = fmt.Fprint(out, "Access token: ")

		secret, err := term.ReadPassword(int(file.Fd()))

		_, _ = fmt.Fprintln(out)

		if err != nil {
			return "", fmt.Errorf("failed to read access token: %w", err)
		}

		return string(secret), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}

	return line, nil
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "shop":
		config.Shop = value
	case "api_version", "api-version":
		config.APIVersion = value
	case "output":
		switch value {
		case "table", constants.FormatJSON, constants.FormatYAML:
			config.Output = value
		default:
			return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutputType, value)
		}
	default:
		return fmt.Errorf("%w: %s (use shop, api_version or output; set-token for the token)", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func loadConfig() *Config {
	return &Config{
		Shop:       viper.GetString("shop"),
		Token:      viper.GetString("token"),
		APIVersion: viper.GetString("api_version"),
		Output:     viper.GetString("output"),
	}
}

func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".shopup", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	viper.Set("shop", config.Shop)
	viper.Set("token", config.Token)
	viper.Set("api_version", config.APIVersion)
	viper.Set("output", config.Output)

	return nil
}
