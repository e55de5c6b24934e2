package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rwdocs/docstage/internal/adapters/confluence"
	"github.com/rwdocs/docstage/internal/ui"
)

var confluenceGenerateTokensCmd = &cobra.Command{
	Use:   "generate-tokens",
	Short: "Run the interactive OAuth 1.0 authorization dance for Confluence",
	Long: `Requests a temporary credential, prints the authorization URL for you to
open in a browser, then exchanges the verification code you receive for a
permanent access token to paste into docstage.toml.`,
	RunE: runConfluenceGenerateTokens,
}

func init() {
	confluenceCmd.AddCommand(confluenceGenerateTokensCmd)
	confluenceGenerateTokensCmd.Flags().StringP("private-key", "k", "private_key.pem", "path to the RSA private key")
	confluenceGenerateTokensCmd.Flags().String("consumer-key", "", "OAuth consumer key (default: from config or \"docstage\")")
	confluenceGenerateTokensCmd.Flags().StringP("base-url", "u", "", "Confluence base URL (default: from config)")
}

func runConfluenceGenerateTokens(cmd *cobra.Command, args []string) error {
	out := ui.NewOutput()
	cfg, err := loader.Load(cfgFile, projectRoot)
	if err != nil {
		return err
	}

	privateKeyPath, _ := cmd.Flags().GetString("private-key")
	consumerKey, _ := cmd.Flags().GetString("consumer-key")
	if consumerKey == "" {
		consumerKey = cfg.Confluence.ConsumerKey
	}
	if consumerKey == "" {
		consumerKey = "docstage"
	}
	baseURL, _ := cmd.Flags().GetString("base-url")
	if baseURL == "" {
		baseURL = cfg.Confluence.BaseURL
	}
	if baseURL == "" {
		return fmt.Errorf("base_url required (via --base-url or config)")
	}

	out.Info("reading private key from " + privateKeyPath + "...")
	keyPEM, err := confluence.ReadPrivateKey(privateKeyPath)
	if err != nil {
		return err
	}

	generator, err := confluence.NewTokenGenerator(baseURL, consumerKey, keyPEM)
	if err != nil {
		return err
	}

	out.Info("step 1: requesting temporary credentials...")
	requestToken, authURL, err := generator.RequestToken()
	if err != nil {
		return err
	}
	out.Success("temporary token received")

	out.Divider()
	out.Title("Step 2: authorization required")
	out.Divider()
	out.Info("open this URL in your browser:")
	out.Info(authURL)

	fmt.Print("Enter the verification code: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read verification code: %w", err)
	}
	verifier := strings.TrimSpace(line)

	out.Info("step 3: exchanging for access token...")
	accessToken, err := generator.ExchangeVerifier(requestToken.Token, verifier)
	if err != nil {
		return err
	}

	out.Divider()
	out.Success("OAuth authorization successful")
	out.Divider()
	out.Info("add these credentials to your docstage.toml:")
	out.Newline()
	fmt.Println("[confluence]")
	fmt.Printf("base_url = %q\n", baseURL)
	fmt.Printf("access_token = %q\n", accessToken.Token)
	fmt.Printf("access_secret = %q\n", accessToken.Secret)
	fmt.Printf("consumer_key = %q\n", consumerKey)

	return nil
}
