package cmd

import (
	"testing"
)

func findCommand(use string) bool {
	for _, c := range rootCmd.Commands() {
		if c.Name() == use {
			return true
		}
	}
	return false
}

func TestRootCmd_RegistersExpectedSubcommands(t *testing.T) {
	for _, name := range []string{"serve", "confluence", "version", "completion"} {
		if !findCommand(name) {
			t.Errorf("expected %q to be registered under rootCmd", name)
		}
	}
}

func TestRootCmd_RegistersCommandGroups(t *testing.T) {
	groups := rootCmd.Groups()
	if len(groups) != 2 {
		t.Fatalf("expected 2 command groups, got %d", len(groups))
	}
	ids := map[string]bool{}
	for _, g := range groups {
		ids[g.ID] = true
	}
	if !ids["serving"] || !ids["publishing"] {
		t.Errorf("expected serving and publishing groups, got %v", ids)
	}
}

func TestServeCmd_BelongsToServingGroup(t *testing.T) {
	if serveCmd.GroupID != "serving" {
		t.Errorf("expected serveCmd.GroupID == serving, got %q", serveCmd.GroupID)
	}
}

func TestConfluenceCmd_BelongsToPublishingGroup(t *testing.T) {
	if confluenceCmd.GroupID != "publishing" {
		t.Errorf("expected confluenceCmd.GroupID == publishing, got %q", confluenceCmd.GroupID)
	}
}

func TestConfluenceCmd_RegistersUpdateAndGenerateTokens(t *testing.T) {
	names := map[string]bool{}
	for _, c := range confluenceCmd.Commands() {
		names[c.Name()] = true
	}
	if !names["update"] {
		t.Error("expected confluence update subcommand")
	}
	if !names["generate-tokens"] {
		t.Error("expected confluence generate-tokens subcommand")
	}
}

func TestConfluenceUpdateCmd_RequiresExactlyTwoArgs(t *testing.T) {
	if err := confluenceUpdateCmd.Args(confluenceUpdateCmd, []string{"only-one"}); err == nil {
		t.Error("expected error for a single argument")
	}
	if err := confluenceUpdateCmd.Args(confluenceUpdateCmd, []string{"123456", "docs/overview.md"}); err != nil {
		t.Errorf("expected no error for two arguments, got %v", err)
	}
}

func TestServeCmd_FlagsHaveExpectedDefaults(t *testing.T) {
	src, err := serveCmd.Flags().GetString("source")
	if err != nil || src != "" {
		t.Errorf("expected empty default source flag, got %q, err %v", src, err)
	}
	port, err := serveCmd.Flags().GetInt("port")
	if err != nil || port != 0 {
		t.Errorf("expected default port 0 (unset), got %d, err %v", port, err)
	}
}

func TestConfluenceGenerateTokensCmd_PrivateKeyFlagDefault(t *testing.T) {
	v, err := confluenceGenerateTokensCmd.Flags().GetString("private-key")
	if err != nil {
		t.Fatal(err)
	}
	if v != "private_key.pem" {
		t.Errorf("expected default private-key flag %q, got %q", "private_key.pem", v)
	}
}

func TestSetVersionInfo_SetsRootCmdVersion(t *testing.T) {
	SetVersionInfo("1.2.3", "abcdef", "2026-01-01")
	if rootCmd.Version != "1.2.3" {
		t.Errorf("expected rootCmd.Version == 1.2.3, got %q", rootCmd.Version)
	}
	if appVersion != "1.2.3" || appCommit != "abcdef" || appDate != "2026-01-01" {
		t.Errorf("expected build vars to be updated, got %q %q %q", appVersion, appCommit, appDate)
	}
}
