package main

import (
	"fmt"
	"os"
	"path/filepath"

	"discordmcp/internal/config"
	"discordmcp/internal/webhook"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	var network bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common setup problems",
		Long:  "Checks the config file, webhook URL shape, and log destination. With --network it also asks Discord about the webhook.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(network)
		},
	}

	cmd.Flags().BoolVar(&network, "network", false, "verify the webhook against the Discord API")
	return cmd
}

func runDoctor(network bool) error {
	var passed, warned, failed int

	pass := func(format string, args ...any) {
		passed++
		fmt.Printf("  ✓ "+format+"\n", args...)
	}
	warn := func(format string, args ...any) {
		warned++
		fmt.Printf("  ! "+format+"\n", args...)
	}
	fail := func(format string, args ...any) {
		failed++
		fmt.Printf("  ✗ "+format+"\n", args...)
	}

	fmt.Println("discordmcp doctor")
	fmt.Println()

	// Config file.
	cfgPath := resolveConfigPath()
	cfg := config.Defaults()
	if _, err := os.Stat(cfgPath); err != nil {
		warn("no config file at %s (run 'discordmcp init')", cfgPath)
	} else {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			fail("config at %s does not load: %v", cfgPath, err)
		} else {
			pass("config loads from %s", cfgPath)
			cfg = loaded
		}
	}

	// Webhook URL resolution and shape.
	url := config.ResolveWebhookURL(cfg, webhookURL)
	if url == "" {
		fail("no webhook URL: set webhook.url, export %s, or pass --webhook-url", config.EnvWebhookURL)
	} else {
		pass("webhook URL resolved (%s)", config.MaskURL(url))
		id, _, err := webhook.ParseURL(url)
		if err != nil {
			fail("webhook URL is not a Discord webhook: %v", err)
		} else {
			pass("webhook URL shape ok (id %s)", id)
			if network {
				wh, err := webhook.Inspect(url)
				if err != nil {
					warn("Discord did not accept the webhook: %v", err)
				} else {
					pass("webhook live: %q (channel %s)", wh.Name, wh.ChannelID)
				}
			}
		}
	}

	// Log destination.
	if cfg.General.LogFile == "" {
		pass("logging to stderr")
	} else {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fail("log file %s not writable: %v", cfg.General.LogFile, err)
		} else {
			f.Close()
			pass("log file writable at %s", cfg.General.LogFile)
		}
	}

	// Config directory permissions.
	if dir := filepath.Dir(cfgPath); dir != "." {
		if info, err := os.Stat(dir); err == nil && info.Mode().Perm()&0o077 != 0 {
			warn("config dir %s is group/world accessible (%v)", dir, info.Mode().Perm())
		}
	}

	fmt.Println()
	fmt.Printf("%d passed, %d warnings, %d failed\n", passed, warned, failed)
	if failed > 0 {
		return fmt.Errorf("doctor found %d problem(s)", failed)
	}
	return nil
}
