package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-mapview/internal/basemap"
	"github.com/joeblew999/plat-mapview/internal/config"
	"github.com/joeblew999/plat-mapview/internal/server"
	"github.com/joeblew999/plat-mapview/internal/session"
)

const version = "0.1.0"

// Options defines all CLI flags and env vars for the map server.
// Flags: --host, --port, --config, --log-level, --templates
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_CONFIG, SERVICE_LOG_LEVEL, SERVICE_TEMPLATES
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8086"`
	Config    string `doc:"Map configuration file (.yaml or .toml), empty for built-in defaults"`
	LogLevel  string `doc:"Log level: debug, info, warn or error" default:"info"`
	Templates string `doc:"Template directory to load and watch for changes (development)"`
}

func parseLogLevel(s string) (logpkg.LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return logpkg.LogLevelDebug, nil
	case "info", "":
		return logpkg.LogLevelInfo, nil
	case "warn", "warning":
		return logpkg.LogLevelWarn, nil
	case "error":
		return logpkg.LogLevelError, nil
	}
	return 0, errorsx.Errorf("unknown log level %q", s)
}

func newServer(opts *Options) (*server.Server, *logpkg.Logger, error) {
	level, err := parseLogLevel(opts.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger := logpkg.NewLogger(os.Stderr, level)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.New(cfg, session.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	srv, err := server.New(server.Config{
		Host:    opts.Host,
		Port:    fmt.Sprintf("%d", opts.Port),
		Version: version,
		Logger:  logger,
	}, sess)
	if err != nil {
		return nil, nil, err
	}
	return srv, logger, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		hooks.OnStart(func() {
			srv, logger, err := newServer(opts)
			if err != nil {
				fatal(err)
			}
			if opts.Templates != "" {
				stop, err := srv.Renderer().Watch(opts.Templates, logger)
				if err != nil {
					fatal(err)
				}
				defer stop()
				logger.Info("templates: watching %s", opts.Templates)
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-mapview server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Viewer:  %s/viewer\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				logger.Error("server: %s", err)
				os.Exit(1)
			}
		})
	})

	cli.Root().Use = "mapview"
	cli.Root().Short = "Map viewer with basemap presets, layer legend and pointer readout"
	cli.Root().Version = version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, _, err := newServer(opts)
			if err != nil {
				fatal(err)
			}
			useYAML, _ := cmd.Flags().GetBool("yaml")
			if err := printDoc(srv.OpenAPI(), useYAML); err != nil {
				fatal(err)
			}
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// presets subcommand: list basemap presets in bar order
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "List basemap presets in order",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			catalog, err := loadCatalog(opts)
			if err != nil {
				fatal(err)
			}
			for _, p := range catalog.Presets() {
				kind := "source " + p.ID
				if p.Style != "" {
					kind = "style " + p.Style
				} else if p.Source != "" {
					kind = "source " + p.Source
				}
				fmt.Printf("%-20s %-20s %s\n", p.ID, p.Label(), kind)
			}
		}),
	}
	cli.Root().AddCommand(presetsCmd)

	// resolve subcommand: print the style document a preset resolves to
	resolveCmd := &cobra.Command{
		Use:   "resolve <preset>",
		Short: "Print the style document a preset resolves to",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			catalog, err := loadCatalog(opts)
			if err != nil {
				fatal(err)
			}
			doc, err := catalog.Resolve(args[0])
			if err != nil {
				fatal(err)
			}
			useYAML, _ := cmd.Flags().GetBool("yaml")
			if err := printDoc(doc, useYAML); err != nil {
				fatal(err)
			}
		}),
	}
	resolveCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(resolveCmd)

	cli.Run()
}

func loadCatalog(opts *Options) (*basemap.Catalog, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	return basemap.NewDefaultCatalog(cfg.Presets)
}

func printDoc(v any, useYAML bool) error {
	var output []byte
	var err error
	if useYAML {
		output, err = yaml.Marshal(v)
	} else {
		output, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return errorsx.Wrap(err)
	}
	fmt.Println(string(output))
	return nil
}
