package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/stellarlinkco/rampup/internal/collab"
	"github.com/stellarlinkco/rampup/internal/config"
	"github.com/stellarlinkco/rampup/internal/gateway"
	"github.com/stellarlinkco/rampup/internal/model"
	"github.com/stellarlinkco/rampup/internal/onboard"
	"github.com/stellarlinkco/rampup/internal/store"
	"github.com/stellarlinkco/rampup/internal/workflow"
)

const version = "0.2.0"

var rootCmd = &cobra.Command{
	Use:   "rampup",
	Short: "rampup - employee onboarding orchestration",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default config file",
	RunE:  runInit,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard, reminders and notifier",
	RunE:  runServe,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Onboard a new employee",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status <employee-id>",
	Short: "Show onboarding progress for one employee",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List everyone being onboarded",
	RunE:  runList,
}

var checklistCmd = &cobra.Command{
	Use:   "checklist <role>",
	Short: "Show the task checklist a role resolves to",
	Args:  cobra.ExactArgs(1),
	RunE:  runChecklist,
}

var completeCmd = &cobra.Command{
	Use:   "complete <employee-id> <task-id>",
	Short: "Mark an onboarding task as completed",
	Args:  cobra.ExactArgs(2),
	RunE:  runComplete,
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List the shared document library",
	RunE:  runDocs,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rampup %s\n", version)
	},
}

var (
	nameFlag    string
	emailFlag   string
	roleFlag    string
	teamFlag    string
	githubFlag  string
	detailsFlag string
	forceFlag   bool
)

func init() {
	initCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing config")
	onboardCmd.Flags().StringVar(&nameFlag, "name", "", "Employee full name")
	onboardCmd.Flags().StringVar(&emailFlag, "email", "", "Employee email")
	onboardCmd.Flags().StringVar(&roleFlag, "role", "", "Role, e.g. 'Backend Engineer'")
	onboardCmd.Flags().StringVar(&teamFlag, "team", "", "Team name")
	onboardCmd.Flags().StringVar(&githubFlag, "github", "", "GitHub username (enables the scm stage)")
	completeCmd.Flags().StringVar(&detailsFlag, "details", "", "Note to attach to the task")
	rootCmd.AddCommand(initCmd, serveCmd, onboardCmd, statusCmd, listCmd, checklistCmd, completeCmd, docsCmd, versionCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.New(cfg.Store.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); err == nil && !forceFlag {
		fmt.Printf("Config already exists: %s (use --force to overwrite)\n", cfgPath)
		return nil
	}

	if err := config.SaveConfig(config.DefaultConfig()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Created config: %s\n", cfgPath)

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set SLACK_BOT_TOKEN, GITHUB_TOKEN and GDRIVE_SERVICE_ACCOUNT_KEY for live integrations")
	fmt.Println("     (without them every collaborator runs in mock mode)")
	fmt.Println("  2. Run 'rampup serve' to start the dashboard")
	fmt.Println(`  3. Or try it now: rampup onboard --name "Ada Lovelace" --email ada@example.com --role engineer`)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runOnboard(cmd *cobra.Command, args []string) error {
	if nameFlag == "" || emailFlag == "" {
		return fmt.Errorf("--name and --email are required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	collabs := collab.New(cfg)
	resolver := workflow.NewResolver(cfg.Workflows.Dir)
	orch := onboard.New(st, collabs, resolver, nil, cfg.Slack.DefaultChannel)

	res, err := orch.Onboard(context.Background(), onboard.Request{
		Name:           nameFlag,
		Email:          emailFlag,
		Role:           roleFlag,
		Team:           teamFlag,
		GithubUsername: githubFlag,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Onboarded %s (%s)\n\n", nameFlag, res.EmployeeID)
	for _, step := range res.Steps {
		if step.Success {
			fmt.Printf("  %-16s ok\n", step.Step)
		} else {
			fmt.Printf("  %-16s FAILED (%s)\n", step.Step, step.Error)
		}
	}
	fmt.Printf("\nProgress: %.1f%% (%d/%d tasks)\n", res.Progress, res.CompletedTasks, res.TotalTasks)
	fmt.Printf("Track it: rampup status %s\n", res.EmployeeID)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	status, err := st.GetStatus(args[0])
	if err != nil {
		return err
	}

	emp := status.Employee
	completed, total := status.Counts()
	fmt.Printf("%s <%s>\n", emp.Name, emp.Email)
	fmt.Printf("Role: %s  Team: %s  Started: %s\n", emp.Role, emp.Team, emp.StartDate)
	fmt.Printf("Progress: %.1f%% (%d/%d tasks)\n", status.ProgressPercent, completed, total)
	if !status.CompletedAt.IsZero() {
		fmt.Printf("Completed: %s\n", status.CompletedAt.Format("2006-01-02 15:04"))
	}
	fmt.Println()
	for _, task := range status.Tasks {
		line := fmt.Sprintf("  [%s] %-28s %s", statusMark(task.Status), task.Name, task.Status)
		if task.Details != "" {
			line += fmt.Sprintf(" (%s)", task.Details)
		}
		fmt.Println(line)
	}
	return nil
}

func statusMark(s model.TaskStatus) string {
	switch s {
	case model.StatusCompleted:
		return "x"
	case model.StatusFailed:
		return "!"
	case model.StatusSkipped:
		return "-"
	case model.StatusInProgress:
		return "~"
	default:
		return " "
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	statuses := st.AllStatuses()
	if len(statuses) == 0 {
		fmt.Println("No employees yet. Start with: rampup onboard --name ... --email ...")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tTEAM\tPROGRESS\tSTART")
	for _, status := range statuses {
		emp := status.Employee
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f%%\t%s\n",
			emp.ID, emp.Name, emp.Role, emp.Team, status.ProgressPercent, emp.StartDate)
	}
	return w.Flush()
}

func runChecklist(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tpl, err := workflow.NewResolver(cfg.Workflows.Dir).Resolve(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Checklist for %s (%d tasks)\n\n", tpl.Role, len(tpl.Tasks))
	for _, task := range tpl.Tasks {
		fmt.Printf("  [%s] %s\n", task.Category, task.Name)
	}
	if len(tpl.Channels) > 0 {
		fmt.Printf("\nChannels: %s\n", strings.Join(tpl.Channels, ", "))
	}
	if len(tpl.Docs) > 0 {
		fmt.Printf("Documents: %s\n", strings.Join(tpl.Docs, ", "))
	}
	if len(tpl.Repos) > 0 {
		fmt.Printf("Repos: %s\n", strings.Join(tpl.Repos, ", "))
	}
	return nil
}

func runComplete(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	task, out, err := st.MarkTaskComplete(args[0], args[1], detailsFlag)
	if err != nil {
		return err
	}
	if out.Err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", out.Err)
	}

	status, err := st.GetStatus(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Completed %q\n", task.Name)
	fmt.Printf("Progress: %.1f%%\n", status.ProgressPercent)
	return nil
}

func runDocs(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tTYPE")
	for _, doc := range collab.Library() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", doc.Key, doc.Name, doc.Type)
	}
	return w.Flush()
}
