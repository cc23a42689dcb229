package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discordmcp/internal/config"
	"discordmcp/internal/domain"
	"discordmcp/internal/mcp"
	"discordmcp/internal/metrics"
	"discordmcp/internal/tool"
	"discordmcp/internal/webhook"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
	webhookURL string // overridable via --webhook-url flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "discordmcp",
		Short: "Discord webhook bridge speaking the Model Context Protocol",
		Long: "discordmcp exposes a single send_message tool over MCP stdio and\n" +
			"forwards its content to a Discord channel via webhook.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ~/.discordmcp/config.json)")
	root.PersistentFlags().StringVar(&webhookURL, "webhook-url", "", "Discord webhook URL (overrides "+config.EnvWebhookURL+" and config)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(clientCmd())
	root.AddCommand(sendCmd())
	root.AddCommand(configCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfigOrDefaults loads the config file, falling back to defaults when
// it is missing. Serving with no file is fine as long as the webhook URL
// arrives via flag or environment.
func loadConfigOrDefaults(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", path, "err", err)
		return config.Defaults()
	}
	return cfg
}

// setupLogger rebuilds the global logger per config: level, and optionally
// a log file. Stderr is always the fallback; stdout belongs to the protocol.
func setupLogger(cfg *config.Config) {
	var level slog.Level
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Warn("cannot open log file, logging to stderr", "path", cfg.General.LogFile, "err", err)
		} else {
			out = f
		}
	}

	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			logger.Info("set webhook.url in the config or export " + config.EnvWebhookURL)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [webhook-url]",
		Short: "Run the MCP server on stdin/stdout",
		Long: "Serves the MCP protocol on stdin/stdout; logs go to stderr. The\n" +
			"webhook URL comes from the argument or --webhook-url flag, the\n" +
			config.EnvWebhookURL + " environment variable, or the config file,\n" +
			"in that order. A missing URL is fatal at startup.",
		Args: cobra.MaximumNArgs(1),
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefaults(resolveConfigPath())
	setupLogger(cfg)

	override := webhookURL
	if override == "" && len(args) > 0 {
		override = args[0]
	}
	url := config.ResolveWebhookURL(cfg, override)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The only fatal error path: an unconfigured endpoint never serves.
	sender, err := webhook.New(webhook.Config{
		URL:     url,
		Timeout: time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer sender.Close()

	reg := tool.NewRegistry(logger)
	reg.Register(tool.NewSendMessage(sender, logger))

	srv := mcp.NewServer(reg, version, logger)
	logger.Info("mcp server starting", "version", version, "tools", reg.Names())

	err = srv.Run(ctx)
	logStats()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("mcp server stopped")
	return nil
}

// logStats emits the session counters gathered since startup.
func logStats() {
	attrs := []any{"uptime", metrics.Collector.Uptime().Round(time.Second)}
	for _, c := range metrics.Collector.Snapshot() {
		attrs = append(attrs, c.Name, c.Value)
	}
	logger.Info("session stats", attrs...)
}

func clientCmd() *cobra.Command {
	var content string
	var msgType string
	var serverBin string

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Launch the server as a subprocess and send a message through it",
		Long: "Spawns the MCP server, performs the initialize handshake, lists\n" +
			"the advertised tools, and invokes send_message once.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults(resolveConfigPath())
			setupLogger(cfg)

			command := serverBin
			if command == "" {
				command = cfg.Client.Command
			}
			if command == "" {
				self, err := os.Executable()
				if err != nil {
					return fmt.Errorf("resolve own binary: %w", err)
				}
				command = self
			}

			env := map[string]string{}
			for k, v := range cfg.Client.Env {
				env[k] = v
			}
			if url := config.ResolveWebhookURL(cfg, webhookURL); url != "" {
				env[config.EnvWebhookURL] = url
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := mcp.NewClient(mcp.ClientConfig{
				Command: command,
				Args:    cfg.Client.Args,
				Env:     env,
				Logger:  logger,
			})
			if err := client.Start(ctx); err != nil {
				return err
			}
			defer client.Close()

			info, err := client.Initialize(ctx)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			fmt.Printf("connected: %s %s (protocol %s)\n", info.ServerInfo.Name, info.ServerInfo.Version, info.ProtocolVersion)

			tools, err := client.ListTools(ctx)
			if err != nil {
				return fmt.Errorf("list tools: %w", err)
			}
			for _, tl := range tools {
				fmt.Printf("tool: %s — %s\n", tl.Name, tl.Description)
			}

			result, err := client.CallTool(ctx, "send_message", map[string]any{
				"content":  content,
				"msg_type": msgType,
			})
			if err != nil {
				return fmt.Errorf("call send_message: %w", err)
			}
			for _, block := range result.Content {
				fmt.Println(block.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&content, "content", "# discordmcp\nHello from the MCP client!", "message content to send")
	cmd.Flags().StringVar(&msgType, "type", domain.MsgTypeMarkdown, "message type (text|markdown)")
	cmd.Flags().StringVar(&serverBin, "server", "", "server binary to spawn (default: this binary)")
	return cmd
}

func sendCmd() *cobra.Command {
	var msgType string

	cmd := &cobra.Command{
		Use:   "send [content]",
		Short: "Send a message directly to the webhook, bypassing MCP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults(resolveConfigPath())
			setupLogger(cfg)

			sender, err := webhook.New(webhook.Config{
				URL:     config.ResolveWebhookURL(cfg, webhookURL),
				Timeout: time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			defer sender.Close()

			// Route through the registry so the arguments face the same
			// validation gate as MCP calls.
			reg := tool.NewRegistry(logger)
			reg.Register(tool.NewSendMessage(sender, logger))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out, err := reg.Execute(ctx, "send_message", map[string]any{
				"content":  args[0],
				"msg_type": msgType,
			})
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&msgType, "type", domain.MsgTypeText, "message type (text|markdown)")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. webhook.timeoutSeconds)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. webhook.url https://discord.com/api/webhooks/...)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values (webhook token masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(config.Sanitize(cfg), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("discordmcp " + version)
		},
	}
}
