// Package cmd defines the pagegen command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	configPath      string
	total           int
	concurrency     int
	noCategoryPages bool
	devLogs         bool
}

// newRootCmd builds the command tree. Running the root command generates pages.
func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "pagegen",
		Short: "Generate static SEO pages for every GigaSpace character.",
		Long: `pagegen fetches every character from the GigaSpace API, renders a static
HTML page for each one from the built site's index.html, and writes the pages
next to the site so crawlers see real titles and metadata.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// A missing .env is normal outside local development.
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts, stdout)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a config file (yaml, json or toml)")
	flags.IntVar(&opts.total, "total", 0, "number of entities to generate; skips auto-detection")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "maximum entities processed at once")
	flags.BoolVar(&opts.noCategoryPages, "no-category-pages", false, "only write canonical pages")
	flags.BoolVar(&opts.devLogs, "dev", false, "human-friendly development logging")

	cmd.AddCommand(newGenerateCmd(opts, stdout))
	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pagegen:", err)
		os.Exit(1)
	}
}
