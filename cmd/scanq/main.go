package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/osvaldoandrade/scanq/internal/backoff"
	"github.com/osvaldoandrade/scanq/pkg/client"
	"github.com/osvaldoandrade/scanq/pkg/domain"
	"github.com/osvaldoandrade/scanq/pkg/secret"
	"github.com/osvaldoandrade/scanq/pkg/selection"
	"github.com/osvaldoandrade/scanq/pkg/submit"
)

var version = "dev"

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

func (u *ui) report(s domain.ReportStatus) string {
	switch s {
	case domain.ReportAlert, domain.ReportError:
		return u.err(string(s))
	case domain.ReportWarn:
		return u.warn(string(s))
	case domain.ReportClean:
		return u.ok(string(s))
	case domain.ReportRunning:
		return u.info(string(s))
	default:
		return u.dim(string(s))
	}
}

type profile struct {
	BaseURL   string `yaml:"baseUrl"`
	Token     string `yaml:"token"`
	CSRFToken string `yaml:"csrfToken"`
}

type cliConfig struct {
	CurrentProfile string             `yaml:"currentProfile"`
	Profiles       map[string]profile `yaml:"profiles"`
}

func main() {
	baseURL := getenv("SCANQ_BASE_URL", "http://localhost:8080")
	token := getenv("SCANQ_TOKEN", "")
	csrfToken := getenv("SCANQ_CSRF_TOKEN", "")
	profileName := getenv("SCANQ_PROFILE", "")
	ui := newUI()

	root := &cobra.Command{
		Use:   "scanq",
		Short: "scanQ CLI",
		Long:  "scanQ CLI for submitting samples and tracking their analysis.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&baseURL, "base-url", baseURL, "Base URL for the scanQ intake service")
	root.PersistentFlags().StringVar(&token, "token", token, "Bearer token")
	root.PersistentFlags().StringVar(&csrfToken, "csrf-token", csrfToken, "Anti-forgery token sent on submissions")
	root.PersistentFlags().StringVar(&profileName, "profile", profileName, "Config profile")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, _, _ := loadConfig()
		active := resolveProfileName(profileName, cfg)
		prof := cfg.Profiles[active]

		flags := cmd.Flags()
		if !flags.Changed("base-url") {
			if v := strings.TrimSpace(os.Getenv("SCANQ_BASE_URL")); v != "" {
				baseURL = v
			} else if prof.BaseURL != "" {
				baseURL = prof.BaseURL
			}
		}
		if !flags.Changed("token") {
			if v := strings.TrimSpace(os.Getenv("SCANQ_TOKEN")); v != "" {
				token = v
			} else if prof.Token != "" {
				token = prof.Token
			}
		}
		if !flags.Changed("csrf-token") {
			if v := strings.TrimSpace(os.Getenv("SCANQ_CSRF_TOKEN")); v != "" {
				csrfToken = v
			} else if prof.CSRFToken != "" {
				csrfToken = prof.CSRFToken
			}
		}
		if !flags.Changed("profile") && profileName == "" && active != "" {
			profileName = active
		}
		return nil
	}

	root.AddCommand(initCmd(&profileName, ui))
	root.AddCommand(authCmd(&profileName, ui))
	root.AddCommand(contextCmd(&baseURL, &token, ui))
	root.AddCommand(workersCmd(&baseURL, &token, ui))
	root.AddCommand(submitCmd(&baseURL, &token, &csrfToken, ui))
	root.AddCommand(statusCmd(&baseURL, &token, ui))
	root.AddCommand(versionCmd(ui))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func initCmd(profileName *string, ui *ui) *cobra.Command {
	var (
		baseURL   string
		token     string
		csrfToken string
		noPrompt  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize CLI config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]

			if baseURL == "" {
				baseURL = prof.BaseURL
			}
			if baseURL == "" {
				baseURL = "http://localhost:8080"
			}

			if !noPrompt {
				reader := bufio.NewReader(os.Stdin)
				baseURL = prompt(reader, "Base URL", baseURL)
				if token == "" {
					token = prompt(reader, "Bearer token (optional)", "")
				}
			}

			prof.BaseURL = strings.TrimSpace(baseURL)
			if token != "" {
				prof.Token = strings.TrimSpace(token)
			}
			if csrfToken != "" {
				prof.CSRFToken = strings.TrimSpace(csrfToken)
			}

			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || *profileName != "" {
				cfg.CurrentProfile = active
			}

			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Initialized profile '%s' at %s\n", ui.ok("[OK]"), active, cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL for the scanQ intake service")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token")
	cmd.Flags().StringVar(&csrfToken, "csrf-token", "", "Anti-forgery token")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")
	return cmd
}

func authCmd(profileName *string, ui *ui) *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
	}

	var (
		token       string
		csrfToken   string
		promptToken bool
	)

	set := &cobra.Command{
		Use:   "set",
		Short: "Store tokens in config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if promptToken {
				t, err := promptSecret("Bearer token")
				if err != nil {
					return err
				}
				token = t
			}
			if token == "" && csrfToken == "" {
				return errors.New("provide --token (or --prompt) and/or --csrf-token")
			}
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			if token != "" {
				prof.Token = strings.TrimSpace(token)
			}
			if csrfToken != "" {
				prof.CSRFToken = strings.TrimSpace(csrfToken)
			}
			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || *profileName != "" {
				cfg.CurrentProfile = active
			}
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Credentials updated for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}
	set.Flags().StringVar(&token, "token", "", "Bearer token")
	set.Flags().StringVar(&csrfToken, "csrf-token", "", "Anti-forgery token")
	set.Flags().BoolVar(&promptToken, "prompt", false, "Prompt for the bearer token (hidden input)")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			fmt.Printf("%s Profile: %s\n", ui.title("scanq"), active)
			fmt.Printf("%s Base URL: %s\n", ui.info("•"), emptyOr(prof.BaseURL, "<unset>"))
			fmt.Printf("%s Token:    %s\n", ui.info("•"), maskToken(prof.Token))
			fmt.Printf("%s CSRF:     %s\n", ui.info("•"), maskToken(prof.CSRFToken))
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Clear stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			prof.Token = ""
			prof.CSRFToken = ""
			cfg.Profiles[active] = prof
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Tokens cleared for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}

	auth.AddCommand(set, show, clear)
	return auth
}

func contextCmd(baseURL, token *string, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Show the submission page context",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(*baseURL, client.WithToken(*token), client.WithUserAgent("scanq-cli/"+version))
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Fetching context..."
			spin.Start()
			pc, err := c.Context(cmd.Context())
			spin.Stop()
			if err != nil {
				return err
			}
			fmt.Printf("%s Submission context\n", ui.title("scanq"))
			fmt.Printf("%s Max file size: %d MB\n", ui.info("•"), pc.MaxFileSizeMB)
			fmt.Printf("%s Advanced selection: %v\n", ui.info("•"), pc.AdvancedSelection)
			for _, d := range pc.Disclaimers {
				fmt.Printf("%s %s\n", ui.warn("!"), d)
			}
			fmt.Printf("%s Workers (%d):\n", ui.info("•"), len(pc.Workers))
			for _, w := range pc.Workers {
				printWorker(ui, w)
			}
			return nil
		},
	}
}

func workersCmd(baseURL, token *string, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "List the selectable analysis workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(*baseURL, client.WithToken(*token), client.WithUserAgent("scanq-cli/"+version))
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Fetching workers..."
			spin.Start()
			workers, err := c.Workers(cmd.Context())
			spin.Stop()
			if err != nil {
				return err
			}
			for _, w := range workers {
				printWorker(ui, w)
			}
			return nil
		},
	}
}

func printWorker(u *ui, w domain.Worker) {
	line := fmt.Sprintf("%s %s", u.ok("•"), w.DisplayName)
	if w.Name != w.DisplayName {
		line += " " + u.dim("("+w.Name+")")
	}
	if w.Description != "" {
		line += " — " + w.Description
	}
	fmt.Println(line)
}

func submitCmd(baseURL, token, csrfToken *string, ui *ui) *cobra.Command {
	var (
		disable     string
		password    string
		askPassword bool
		validity    int64
		maxInFlight int
	)
	cmd := &cobra.Command{
		Use:     "submit <file> [file...]",
		Short:   "Submit files for analysis",
		Example: "scanq submit sample.docx --disable yara --validity 86400",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type queued struct {
				name string
				data []byte
			}
			files := make([]queued, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				files = append(files, queued{name: filepath.Base(path), data: data})
			}

			if askPassword {
				p, err := promptSecret("Sample password")
				if err != nil {
					return err
				}
				password = p
			}

			csrf := strings.TrimSpace(*csrfToken)
			if csrf == "" {
				// Double-submit check: without a cookie pair any header value passes.
				csrf = randomToken()
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			c := client.New(*baseURL,
				client.WithToken(*token),
				client.WithCSRFToken(csrf),
				client.WithUserAgent("scanq-cli/"+version),
			)

			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Fetching submission context..."
			spin.Start()
			pc, err := c.Context(ctx)
			spin.Stop()
			if err != nil {
				return err
			}

			matrix := selection.NewMatrix(pc.Workers)
			for _, name := range splitList(disable) {
				if err := matrix.SetEnabled(name, false); err != nil {
					return fmt.Errorf("%w (see `scanq workers`)", err)
				}
			}
			disclosure := secret.New()
			if password != "" {
				disclosure.SetVisible(true)
				disclosure.SetValue(password)
			}

			var mu sync.Mutex
			results := map[string]*domain.SubmitResult{}
			submitFn := func(ctx context.Context, p submit.Payload) (*domain.SubmitResult, error) {
				res, err := c.Submit(ctx, client.SubmitRequest{
					Filename:        p.Filename,
					File:            p.File,
					DisabledWorkers: p.DisabledWorkers,
					Password:        p.Secret,
					ValiditySeconds: p.ValiditySeconds,
				})
				if err == nil {
					mu.Lock()
					results[res.TaskID] = res
					mu.Unlock()
				}
				return res, err
			}

			orch := submit.NewOrchestrator(submit.Config{
				MaxFileSizeMB:   pc.MaxFileSizeMB,
				MaxInFlight:     maxInFlight,
				CSRFToken:       csrf,
				ValiditySeconds: validity,
			}, matrix, disclosure, submitFn, nil)

			bar := progressbar.NewOptions(len(files),
				progressbar.OptionSetDescription("Submitting"),
				progressbar.OptionSetWidth(18),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			consumerDone := make(chan struct{})
			go func() {
				defer close(consumerDone)
				for update := range orch.Updates() {
					if update.State == submit.StateSucceeded || update.State == submit.StateFailed {
						_ = bar.Add(1)
					}
				}
			}()

			for _, f := range files {
				if _, err := orch.Add(f.name, f.data); err != nil {
					break
				}
			}
			orch.Wait()
			orch.Close()
			<-consumerDone

			failed := 0
			for _, up := range orch.Uploads() {
				switch up.State {
				case submit.StateSucceeded:
					fmt.Printf("%s %s → task %s\n", ui.ok("[OK]"), up.Filename, up.TaskID)
					mu.Lock()
					res := results[up.TaskID]
					mu.Unlock()
					if res != nil {
						fmt.Printf("     %s %s\n", ui.dim("link:"), res.Link)
						if res.Seed != "" {
							fmt.Printf("     %s %s %s\n", ui.dim("seed:"), res.Seed, ui.dim(fmt.Sprintf("(valid %ds)", res.Lifetime)))
						}
					}
				default:
					failed++
					fmt.Printf("%s %s: %s\n", ui.err("[FAIL]"), up.Filename, up.Message)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d submissions failed", failed, len(files))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&disable, "disable", "", "Comma-separated workers to disable")
	cmd.Flags().StringVar(&password, "password", "", "Decryption password for protected samples")
	cmd.Flags().BoolVar(&askPassword, "ask-password", false, "Prompt for the password (hidden input)")
	cmd.Flags().Int64Var(&validity, "validity", 0, "Seed validity in seconds (0 = no shareable seed)")
	cmd.Flags().IntVar(&maxInFlight, "max-in-flight", 4, "Concurrent uploads")
	return cmd
}

// watchMaxRetries bounds consecutive failed polls before --watch gives up.
const watchMaxRetries = 5

func statusCmd(baseURL, token *string, ui *ui) *cobra.Command {
	var (
		seed  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:     "status <task-id>",
		Short:   "Show a task's analysis status",
		Example: "scanq status 3f6b5a22-9f0e-4a31-8e0e-2e62a9f3c111 --watch",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			c := client.New(*baseURL, client.WithToken(*token), client.WithUserAgent("scanq-cli/"+version))

			if !watch {
				spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
				spin.Suffix = " Fetching task..."
				spin.Start()
				view, err := c.Task(ctx, taskID, seed)
				spin.Stop()
				if err != nil {
					return err
				}
				printTaskView(ui, view)
				return nil
			}

			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Waiting for analysis..."
			spin.Start()
			retry := backoff.Policy{Base: 2 * time.Second, Cap: 30 * time.Second}
			failures := 0
			var last *domain.TaskView
			for {
				view, err := c.Task(ctx, taskID, seed)
				wait := 2 * time.Second
				if err != nil {
					if ctx.Err() != nil {
						spin.Stop()
						if last != nil {
							printTaskView(ui, last)
						}
						return nil
					}
					// 4xx answers will not heal on their own; network errors
					// and 5xx get retried with backoff.
					var apiErr *client.APIError
					if errors.As(err, &apiErr) && apiErr.Status < 500 {
						spin.Stop()
						return err
					}
					failures++
					if failures > watchMaxRetries {
						spin.Stop()
						return fmt.Errorf("giving up after %d failed polls: %w", failures, err)
					}
					spin.Suffix = fmt.Sprintf(" Poll failed, retrying (%d/%d)...", failures, watchMaxRetries)
					wait = retry.Delay(failures - 1)
				} else {
					failures = 0
					last = view
					if view.Task.Status == domain.StatusDone {
						spin.Stop()
						printTaskView(ui, view)
						return nil
					}
					spin.Suffix = fmt.Sprintf(" %s, verdict so far: %s...", view.Task.Status, view.Overall)
				}
				select {
				case <-ctx.Done():
					spin.Stop()
					if last != nil {
						printTaskView(ui, last)
					}
					return nil
				case <-time.After(wait):
				}
			}
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "Shareable seed granting access without a token")
	cmd.Flags().BoolVar(&watch, "watch", false, "Poll until the analysis completes")
	return cmd
}

func printTaskView(u *ui, view *domain.TaskView) {
	fmt.Printf("%s Task %s\n", u.title("scanq"), view.Task.ID)
	fmt.Printf("%s File:    %s (%d bytes)\n", u.info("•"), view.Task.Filename, view.Task.SizeBytes)
	fmt.Printf("%s Status:  %s\n", u.info("•"), view.Task.Status)
	fmt.Printf("%s Verdict: %s\n", u.info("•"), u.report(view.Overall))
	if len(view.Reports) > 0 {
		fmt.Printf("%s Reports:\n", u.info("•"))
		for _, r := range view.Reports {
			fmt.Printf("    %-16s %s\n", r.Worker, u.report(r.Status))
		}
	}
}

func versionCmd(ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", ui.title("scanq"), version)
		},
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func randomToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "scanq-cli"
	}
	return hex.EncodeToString(b)
}

func helpTemplate(ui *ui) string {
	title := ui.title("scanq")
	return fmt.Sprintf(`%s — CLI for scanQ

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Config:
  %s

Examples:
  scanq init
  scanq submit sample.docx --validity 86400
  scanq submit dump.zip --password infected --disable yara,strings
  scanq status <task-id> --watch
  scanq workers

`, title, configPath())
}

func configPath() string {
	if v := strings.TrimSpace(os.Getenv("SCANQ_CONFIG_DIR")); v != "" {
		return filepath.Join(v, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".scanq", "config.yaml")
}

func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	b, err := termReadPassword()
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func termReadPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		return []byte(strings.TrimSpace(line)), err
	}
	return term.ReadPassword(fd)
}

func loadConfig() (cliConfig, string, error) {
	path := configPath()
	var cfg cliConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cliConfig{Profiles: map[string]profile{}}, path, nil
		}
		return cfg, path, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, path, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profile{}
	}
	return cfg, path, nil
}

func saveConfig(cfg cliConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func resolveProfileName(flag string, cfg cliConfig) string {
	if strings.TrimSpace(flag) != "" {
		return strings.TrimSpace(flag)
	}
	if v := strings.TrimSpace(os.Getenv("SCANQ_PROFILE")); v != "" {
		return v
	}
	if cfg.CurrentProfile != "" {
		return cfg.CurrentProfile
	}
	return "default"
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func maskToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "<unset>"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + v[len(v)-4:]
}

func emptyOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
