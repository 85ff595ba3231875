package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chromedash/chromedash/pkg/client"
)

// Build information (injected at compile time via ldflags)
var Version = "dev"

var (
	gatewayAddr string
	authToken   string
	jsonOutput  bool
)

// Custom help template with styled output
var helpTemplate = `{{with .Long}}{{. | trim}}

{{end}}{{if .HasAvailableSubCommands}}` + `{{.CommandPath}}` + ` ` + `<command>` + `

{{end}}{{if .HasAvailableSubCommands}}Commands:
{{range .Commands}}{{if .IsAvailableCommand}}  {{rpad .Name .NamePadding }}  {{.Short}}
{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}
Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}
`

var rootCmd = &cobra.Command{
	Use:   "chromedash",
	Short: "Browse the web platform feature catalog",
	Long: lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Render("chromedash") + ` - Browse the web platform feature catalog

Search features, star the ones you follow and subscribe to
notifications about new features.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		SetJSONOutput(jsonOutput)

		// Auto-load credentials if no token provided
		if authToken == "" {
			authToken = LoadCredentials().Token
		}
	},
}

func init() {
	rootCmd.SetHelpTemplate(helpTemplate)
	rootCmd.SetVersionTemplate(fmt.Sprintf("  %s version %s\n", BrandStyle.Render("chromedash"), Version))

	rootCmd.PersistentFlags().StringVar(&gatewayAddr, "gateway", getEnv("CHROMEDASH_GATEWAY", client.DefaultGatewayURL), "Gateway address")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", getEnv("CHROMEDASH_TOKEN", ""), "Session or admin token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(starsCmd)
	rootCmd.AddCommand(starCmd)
	rootCmd.AddCommand(unstarCmd)
	rootCmd.AddCommand(subscribeCmd)
	rootCmd.AddCommand(unsubscribeCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// Execute runs the CLI
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		PrintFormattedError("Command failed", err)
	}
	return err
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getClient() (*client.Client, error) {
	return client.NewClient(gatewayAddr, authToken)
}
