package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/parcelworks/deedline/internal/core/domain"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage configured portal sources",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourcesList,
}

var sourcesShowCmd = &cobra.Command{
	Use:   "show [source-id]",
	Short: "Show one source's configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesShow,
}

var sourcesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every source configuration",
	RunE:  runSourcesValidate,
}

var sourcesLoginCmd = &cobra.Command{
	Use:   "login [source-id]",
	Short: "Store portal credentials for a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesLogin,
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesShowCmd)
	sourcesCmd.AddCommand(sourcesValidateCmd)
	sourcesCmd.AddCommand(sourcesLoginCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	configs := sourceStore.List()
	if len(configs) == 0 {
		cmd.Println("No sources configured.")
		return nil
	}
	for _, cfg := range configs {
		auth := ""
		if cfg.LoginPath != "" {
			auth = " (login required)"
		}
		cmd.Printf("  %-20s %-15s %s%s\n", cfg.ID, cfg.Kind, cfg.BaseURL, auth)
	}
	return nil
}

func runSourcesShow(cmd *cobra.Command, args []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	cfg, err := sourceStore.Get(args[0])
	if err != nil {
		return err
	}

	cmd.Printf("ID:         %s\n", cfg.ID)
	if cfg.Name != "" {
		cmd.Printf("Name:       %s\n", cfg.Name)
	}
	cmd.Printf("Kind:       %s\n", cfg.Kind)
	cmd.Printf("Base URL:   %s\n", cfg.BaseURL)
	if cfg.RequestsPerSecond > 0 {
		cmd.Printf("Rate:       %.2f req/s\n", cfg.RequestsPerSecond)
	}
	if len(cfg.InstrumentTypes) > 0 {
		cmd.Printf("Instruments: %s\n", strings.Join(cfg.InstrumentTypes, ", "))
	}
	if cfg.LoginPath != "" {
		cmd.Printf("Login path: %s\n", cfg.LoginPath)
	}
	modes := make([]string, 0, len(cfg.Modes))
	for name := range cfg.Modes {
		modes = append(modes, name)
	}
	cmd.Printf("Modes:      %s\n", strings.Join(modes, ", "))
	return nil
}

func runSourcesValidate(cmd *cobra.Command, _ []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	configs := sourceStore.List()
	for i := range configs {
		if err := configs[i].Validate(); err != nil {
			return err
		}
	}
	cmd.Printf("%d source(s) valid\n", len(configs))
	return nil
}

func runSourcesLogin(cmd *cobra.Command, args []string) error {
	if sourceStore == nil || credentialsStore == nil {
		return errors.New("source store not configured")
	}

	cfg, err := sourceStore.Get(args[0])
	if err != nil {
		return err
	}
	if cfg.LoginPath == "" {
		return fmt.Errorf("source %s does not require a login", cfg.ID)
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Printf("Username for %s: ", cfg.ID)
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading username: %w", err)
	}

	cmd.Printf("Password for %s: ", cfg.ID)
	password, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	cmd.Println()

	creds := domain.Credentials{
		Username: strings.TrimSpace(username),
		Password: strings.TrimSpace(password),
	}
	if creds.Username == "" || creds.Password == "" {
		return errors.New("username and password must not be empty")
	}

	if err := credentialsStore.Set(cfg.ID, creds); err != nil {
		return fmt.Errorf("storing credentials: %w", err)
	}
	cmd.Printf("Credentials stored for %s\n", cfg.ID)
	return nil
}

// readPassword reads without echo on a terminal; piped input falls back to a
// plain line read so the command stays scriptable and testable.
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		return string(raw), err
	}
	return reader.ReadString('\n')
}
