package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ka2n/getfavicon/api"
	"github.com/ka2n/getfavicon/config"
	"github.com/ka2n/getfavicon/log"
	"github.com/ka2n/getfavicon/mcp"
	"github.com/mattn/go-isatty"
	"github.com/morikuni/failure/v2"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	// Command line flags
	configFlag    string
	debugFlag     bool
	timeoutFlag   time.Duration
	sizeFlagValue sizeFlag
	userAgentFlag string
	cacheFlag     bool
	forceFlag     bool
	tempDirFlag   string
	openFlag      bool

	// settings is the merged configuration, populated before any command runs
	settings *config.Config

	// Root command
	rootCmd = &cobra.Command{
		Use:           "getfavicon <page-url> <output-file>",
		Short:         "Download the favicon of a web page",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `getfavicon downloads the favicon of a web page and writes it as a small image.

The icon is taken from the first <link rel="icon"> of the page, falling back to
/favicon.ico. Multi-image icons are reduced to their best layer and shrunk to
fit 16x16 pixels. ImageMagick (identify and convert) must be installed.

Example:
  getfavicon https://go.dev/ go.png`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return failure.New(InvalidArguments,
					failure.Message(fmt.Sprintf("accepts 2 args (page URL and output file), but received %d", len(args))))
			}
			return nil
		},
		PersistentPreRunE: loadSettings,
		RunE:              runRoot,
	}

	// Version command
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print detailed version information about getfavicon",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), api.VersionString())
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFlag, "config", "", "Path to configuration file")
	flags.BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	flags.DurationVar(&timeoutFlag, "timeout", 0, "Abort after this duration (e.g. 30s)")
	flags.Var(&sizeFlagValue, "size", "Edge length in pixels the favicon is shrunk to fit (default 16)")
	flags.StringVar(&userAgentFlag, "user-agent", "", "User-Agent header for HTTP requests")
	flags.BoolVar(&cacheFlag, "cache", false, "Cache fetched pages on disk")
	flags.BoolVarP(&forceFlag, "force", "f", false, "Ignore cached pages")
	flags.StringVar(&tempDirFlag, "temp-dir", "", "Directory for temporary files")

	rootCmd.Flags().BoolVarP(&openFlag, "open", "o", false, "Open the written favicon")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mcp.Command(newClient))
}

// Run executes the main CLI functionality
func Run() error {
	return rootCmd.Execute()
}

// loadSettings merges the config file, environment and flags
func loadSettings(cmd *cobra.Command, args []string) error {
	if debugFlag {
		log.SetDebug(true)
	}

	cfg, err := config.Load(config.Find(configFlag))
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Timeout = timeoutFlag
	}
	if sizeFlagValue.IsSet {
		cfg.Size = sizeFlagValue.Value
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = userAgentFlag
	}
	if flags.Changed("cache") {
		cfg.Cache = cacheFlag
	}
	if flags.Changed("temp-dir") {
		cfg.TempDir = tempDirFlag
	}

	settings = cfg
	log.Debug("Loaded settings", "settings", *cfg)
	return nil
}

func newClient() (*api.Client, error) {
	if settings == nil {
		cfg, err := config.Load(config.Find(configFlag))
		if err != nil {
			return nil, err
		}
		settings = cfg
	}
	opts := settings.Options()
	opts.ForceUpdate = forceFlag
	return api.NewClient(opts), nil
}

// commandContext applies the configured timeout to the command context
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if settings != nil && settings.Timeout > 0 {
		return context.WithTimeout(ctx, settings.Timeout)
	}
	return context.WithCancel(ctx)
}

func runRoot(cmd *cobra.Command, args []string) error {
	pageURL, output := args[0], args[1]

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := client.GetFavicon(ctx, pageURL, output); err != nil {
		return err
	}

	if out := cmd.OutOrStdout(); isTerminal(out) {
		fmt.Fprintf(out, "Saved favicon of %s to %s\n", pageURL, output)
	}

	if openFlag {
		if err := browser.OpenFile(output); err != nil {
			return failure.Wrap(err)
		}
	}
	return nil
}

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
