// Command ddtr translates one resource string into every configured language
// and appends it to Java .properties bundles.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/ddtr/baidu"
	"github.com/minios-linux/ddtr/batch"
	"github.com/minios-linux/ddtr/config"
	"github.com/minios-linux/ddtr/i18n"
	"github.com/minios-linux/ddtr/langcode"
	"github.com/minios-linux/ddtr/propfile"
	"github.com/minios-linux/ddtr/settings"
	"github.com/minios-linux/ddtr/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

var errNoCredentials = errors.New("no Baidu API credentials: set apiId/apiKey in the config, DDTR_API_ID/DDTR_API_KEY, or run 'ddtr auth login'")

// ---------------------------------------------------------------------------
// Global flags and logging
// ---------------------------------------------------------------------------

var (
	configPath string
	verbose    bool
	uiLang     string

	logger = slog.New(newLogHandler(os.Stderr, slog.LevelInfo))
)

func newLogHandler(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    os.Getenv("NO_COLOR") != "",
	})
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ddtr",
		Short: "Translate a resource string into every configured language",
		Long: `ddtr: translate one string with the Baidu Fanyi API and append it to
Java .properties resource bundles.

For a key "greeting" and targets [en, ja] the run appends:
  {outputDir}/{baseFilename}_en.properties   greeting=<English>
  {outputDir}/{baseFilename}_ja.properties   greeting=<Japanese>
  {outputDir}/{defaultFilename}.properties   greeting=<source text>

Commands:
  init        Create a .ddtr.json template
  tran        Translate a text and append it to every bundle
  status      Show bundle contents, or one key across all bundles
  langs       List supported language codes
  auth        Manage stored Baidu API credentials`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			i18n.Init(uiLang)
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(newLogHandler(os.Stderr, level))
		},
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file (.json, .yaml or .yml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&uiLang, "lang", "", "Language of ddtr's own messages, as a language code or locale (default: from LANG)")

	root.AddCommand(
		newInitCmd(),
		newTranCmd(),
		newStatusCmd(),
		newLangsCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("ignoring .env", tint.Err(err))
	}
	if err := newRootCmd().Execute(); err != nil {
		logger.Error(i18n.T("ddtr failed"), tint.Err(err))
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ddtr version %s\n", version)
			fmt.Fprintf(w, "  commit:    %s\n", commit)
			fmt.Fprintf(w, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .ddtr.json template",
		Long: `Write a config template to --config (default .ddtr.json).

The template targets en, hk, ja and ko with zh as the default language and
writes bundles to ./src/main/resources/messages. A .yaml or .yml path
produces YAML instead of JSON. Existing files are kept unless --force is
given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), configPath, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	return cmd
}

func runInit(w io.Writer, path string, force bool) error {
	if err := config.Scaffold(path, force); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s✓%s %s\n", colorGreen, colorReset, fmt.Sprintf(i18n.T("Created %s"), path))
	fmt.Fprintln(w, i18n.T("Fill in apiId and apiKey, or run 'ddtr auth login'."))
	return nil
}

// ---------------------------------------------------------------------------
// tran
// ---------------------------------------------------------------------------

// pacing holds the flags that override the config's request pacing.
type pacing struct {
	concurrency int
	interval    time.Duration
}

func (p *pacing) flagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("pacing", pflag.ContinueOnError)
	flags.IntVar(&p.concurrency, "concurrency", 0, "Maximum requests in flight (default from config, else 1)")
	flags.DurationVar(&p.interval, "interval", 0, "Minimum time between request starts, 0 disables (default from config, else 1s)")
	return flags
}

// apply returns cfg with the flags that were set on the command line.
func (p *pacing) apply(cfg *config.Config, flags *pflag.FlagSet) *config.Config {
	var interval *time.Duration
	if flags.Changed("interval") {
		interval = &p.interval
	}
	return cfg.WithPacing(p.concurrency, interval)
}

type tranArgs struct {
	text   string
	key    string
	dryRun bool
	pacing pacing
}

func newTranCmd() *cobra.Command {
	var a tranArgs

	cmd := &cobra.Command{
		Use:     "tran [TEXT] --key KEY",
		Aliases: []string{"translate"},
		Short:   "Translate a text and append it to every bundle",
		Long: `Translate TEXT from defaultLanguage into every targetLanguages entry and
append "KEY=translation" to each language bundle, then "KEY=TEXT" to the
default bundle.

A language whose translation or write fails is reported and skipped; the
others are still written and the exit status stays 0. Configuration
problems (unknown language code, missing output directory) stop the run
before any request is made.

Examples:
  ddtr tran 你好 --key greeting
  ddtr tran --tran 你好 -k greeting --concurrency 2 --interval 500ms
  ddtr tran 你好 -k greeting --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if a.text != "" && a.text != args[0] {
					return errors.New(i18n.T("text given both as argument and with --tran"))
				}
				a.text = args[0]
			}
			return runTran(cmd.Context(), cmd.OutOrStdout(), cmd.Flags(), a)
		},
	}

	cmd.Flags().StringVarP(&a.text, "tran", "t", "", "Text to translate")
	cmd.Flags().StringVarP(&a.key, "key", "k", "", "Resource key (required)")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Validate and show the files that would be appended")
	cmd.Flags().AddFlagSet(a.pacing.flagSet())
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func runTran(ctx context.Context, w io.Writer, flags *pflag.FlagSet, a tranArgs) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = a.pacing.apply(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	id, secret, ok := settings.Resolve(cfg.APIID, cfg.APIKey)
	if !ok && !a.dryRun {
		return errNoCredentials
	}
	cfg = cfg.WithCredentials(id, secret)

	client := baidu.New(cfg.APIID, cfg.APIKey,
		baidu.WithEndpoint(cfg.Endpoint),
		baidu.WithTimeout(cfg.RequestTimeout()),
	)
	bar := newProgressBar(len(cfg.TargetLanguages))
	runner := batch.NewRunner(cfg, translate.NewAdapter(client),
		batch.WithLogger(logger),
		batch.WithProgress(func(o translate.Outcome) {
			if o.OK() {
				logger.Debug("translated", "lang", o.Lang, "took", o.Finished.Sub(o.Started).Round(time.Millisecond))
			}
			_ = bar.Add(1)
		}),
	)

	if a.dryRun {
		plan, err := runner.Plan(a.text, a.key)
		if err != nil {
			return err
		}
		printPlan(w, plan)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger.Debug("config loaded", "path", cfg.Path(), "targets", cfg.TargetLanguages,
		"concurrency", cfg.MaxConcurrent(), "interval", cfg.RequestInterval(), "key", settings.MaskKey(cfg.APIKey))

	rep, err := runner.Run(ctx, a.text, a.key)
	_ = bar.Finish()
	if err != nil {
		return err
	}
	printReport(w, rep)
	return nil
}

// newProgressBar draws on stderr; it is hidden with --verbose so it does not
// interleave with debug logs.
func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(!verbose),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]"+i18n.T("translating")+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionClearOnFinish(),
	)
}

func printPlan(w io.Writer, p *batch.Plan) {
	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Dry run: nothing is sent or written"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for i, job := range p.Jobs {
		fmt.Fprintf(w, "  %-5s %s -> %s\n", job.To, job.From.Wire(), job.To.Wire())
		fmt.Fprintf(w, "        %s=… >> %s\n", p.Key, p.Paths[i])
	}
	fmt.Fprintf(w, "  %-5s %s=%s >> %s\n", p.From, p.Key, p.Text, p.DefaultPath)
	fmt.Fprintln(w)
}

func printReport(w io.Writer, rep *batch.Report) {
	fmt.Fprintf(w, "\n%s%s%s %s\n", colorBlue, i18n.T("Translation report"), colorReset, rep.Key)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	for _, res := range rep.Results {
		printResult(w, res, false)
	}
	printResult(w, rep.Default, true)

	fmt.Fprintln(w, strings.Repeat("─", 60))
	summary := fmt.Sprintf(i18n.T("Finished in %.2fs"), rep.Elapsed.Seconds())
	if n := rep.Failed(); n > 0 {
		fmt.Fprintf(w, "%s, %s%s%s\n", summary, colorYellow,
			fmt.Sprintf(i18n.N("%d of %d language failed", "%d of %d languages failed", len(rep.Results)), n, len(rep.Results)),
			colorReset)
	} else {
		fmt.Fprintln(w, summary)
	}
	fmt.Fprintln(w)
}

func printResult(w io.Writer, res batch.LangResult, isDefault bool) {
	label := res.Lang.String()
	if isDefault {
		label += "*"
	}
	switch res.Status {
	case batch.Written:
		fmt.Fprintf(w, "  %-5s %s✓%s %s  %s\n", label, colorGreen, colorReset, res.Value, res.Path)
	case batch.TranslateFailed:
		fmt.Fprintf(w, "  %-5s %s✗ %s%s: %v\n", label, colorRed, i18n.T("translation failed"), colorReset, res.Err)
	case batch.WriteFailed:
		fmt.Fprintf(w, "  %-5s %s✗ %s%s: %v\n", label, colorRed, i18n.T("write failed"), colorReset, res.Err)
	}
}

// ---------------------------------------------------------------------------
// status (read-only: bundle contents)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [KEY]",
		Short: "Show bundle contents, or one key across all bundles",
		Long: `Without KEY, show how many keys every bundle holds and how many of its
lines repeat an earlier key. With KEY, show the value each bundle resolves
it to (the last occurrence wins). Does not modify any files.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return runStatus(cmd.OutOrStdout(), configPath, key)
		},
	}
}

type bundleRef struct {
	lang langcode.Code
	path string
}

func bundles(cfg *config.Config) ([]bundleRef, error) {
	from, targets, err := cfg.Languages()
	if err != nil {
		return nil, err
	}
	refs := []bundleRef{{lang: from, path: propfile.Path(cfg.OutputDir, cfg.DefaultBundle(), "")}}
	for _, lang := range targets {
		refs = append(refs, bundleRef{lang: lang, path: propfile.Path(cfg.OutputDir, cfg.BaseFilename, lang.String())})
	}
	return refs, nil
}

func runStatus(w io.Writer, path, key string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	refs, err := bundles(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Bundles"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  %s %s\n", i18n.T("Config:"), cfg.Path())
	fmt.Fprintf(w, "  %s %s\n\n", i18n.T("Output:"), cfg.OutputDir)

	for _, ref := range refs {
		f, err := propfile.ParseFile(ref.path)
		if err != nil {
			fmt.Fprintf(w, "  %-5s %s%s%s  %s\n", ref.lang, colorRed, i18n.T("missing"), colorReset, ref.path)
			continue
		}
		if key == "" {
			keys, dups := f.Stats()
			fmt.Fprintf(w, "  %-5s %-6d %s", ref.lang, keys, i18n.N("key", "keys", keys))
			if dups > 0 {
				fmt.Fprintf(w, "  %s(%s)%s", colorYellow, fmt.Sprintf(i18n.N("%d repeated", "%d repeated", dups), dups), colorReset)
			}
			fmt.Fprintf(w, "  %s\n", ref.path)
			continue
		}
		if v, ok := f.Get(key); ok {
			fmt.Fprintf(w, "  %-5s %s=%s\n", ref.lang, key, v)
		} else {
			fmt.Fprintf(w, "  %-5s %s%s%s\n", ref.lang, colorYellow, i18n.T("not set"), colorReset)
		}
	}
	fmt.Fprintln(w)
	return nil
}

// ---------------------------------------------------------------------------
// langs
// ---------------------------------------------------------------------------

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List supported language codes",
		Long: `List every language code accepted in defaultLanguage and targetLanguages,
with the code sent to the API and the language's own name.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printLangs(cmd.OutOrStdout())
		},
	}
}

func printLangs(w io.Writer) {
	fmt.Fprintf(w, "%-6s %-6s %-24s %s\n", i18n.T("Code"), i18n.T("API"), i18n.T("Name"), i18n.T("English"))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, c := range langcode.All() {
		fmt.Fprintf(w, "%-6s %-6s %-24s %s\n", c, c.Wire(), c.NativeName(), c.EnglishName())
	}
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored Baidu API credentials",
		Long: `Manage the Baidu Fanyi credentials stored in the user data directory.

Stored credentials are used when neither the config file nor the
DDTR_API_ID / DDTR_API_KEY environment variables provide both values.

Examples:
  ddtr auth login --id 2015063000000001 --key 12345678
  ddtr auth login                      Prompt for both values
  ddtr auth status
  ddtr auth logout
  ddtr auth logout --all               Delete the credential store file`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var id, key string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store Baidu API credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if id == "" {
				if id, err = prompt(cmd.ErrOrStderr(), in, i18n.T("APP ID: ")); err != nil {
					return err
				}
			}
			if key == "" {
				if key, err = prompt(cmd.ErrOrStderr(), in, i18n.T("Secret key: ")); err != nil {
					return err
				}
			}
			if id == "" || key == "" {
				return errors.New(i18n.T("both the APP ID and the secret key are required"))
			}
			if err := settings.Set(settings.Baidu, &settings.Info{AppID: id, Key: key}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s✓%s %s\n", colorGreen, colorReset,
				fmt.Sprintf(i18n.T("Credentials saved to %s"), settings.FilePath()))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Baidu Fanyi APP ID")
	cmd.Flags().StringVar(&key, "key", "", "Baidu Fanyi secret key")

	return cmd
}

func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newAuthLogoutCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s✓%s %s\n", colorGreen, colorReset,
					fmt.Sprintf(i18n.T("Credential store %s deleted"), settings.FilePath()))
				return nil
			}
			if err := settings.Remove(settings.Baidu); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s✓%s %s\n", colorGreen, colorReset, i18n.T("Credentials removed"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete the whole credential store file")

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"list", "ls"},
		Short:   "Show where credentials come from",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printAuthStatus(cmd.OutOrStdout())
		},
	}
}

func printAuthStatus(w io.Writer) {
	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Stored Credentials"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	if info := settings.Get(settings.Baidu); info.Complete() {
		fmt.Fprintf(w, "  %-14s %s%s%s (id: %s, key: %s)\n", settings.Baidu, colorGreen, i18n.T("configured"), colorReset,
			info.AppID, settings.MaskKey(info.Key))
	} else {
		fmt.Fprintf(w, "  %-14s %s%s%s\n", settings.Baidu, colorRed, i18n.T("not configured"), colorReset)
	}
	if dir, err := settings.DataDir(); err == nil {
		fmt.Fprintf(w, "  %-14s %s\n", i18n.T("data dir"), dir)
	} else {
		fmt.Fprintf(w, "  %-14s %s%s%s\n", i18n.T("data dir"), colorRed, err, colorReset)
	}
	fmt.Fprintf(w, "  %-14s %s\n", i18n.T("file"), settings.FilePath())

	fmt.Fprintf(w, "\n  %s%s%s\n", colorYellow, i18n.T("Environment Variables"), colorReset)
	for _, name := range []string{config.EnvPrefix + "API_ID", config.EnvPrefix + "API_KEY"} {
		if v := os.Getenv(name); v != "" {
			fmt.Fprintf(w, "  %s: %s%s%s %s\n", name, colorGreen, settings.MaskKey(v), colorReset, i18n.T("(overrides stored credentials)"))
		} else {
			fmt.Fprintf(w, "  %s: %s%s%s\n", name, colorRed, i18n.T("not set"), colorReset)
		}
	}
	fmt.Fprintln(w)
}
