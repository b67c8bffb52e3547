package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/pwvault/cmd"
	"github.com/illarion/pwvault/internal/vault"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
		return
	case "completion":
		runCompletion(os.Args[2:])
		return
	}

	env := cmd.Setup()
	args := os.Args[2:]

	switch os.Args[1] {
	case "init":
		runInit(ctx, env, args)
	case "ls":
		runLs(ctx, env, args)
	case "show":
		runShow(ctx, env, args)
	case "add":
		runAdd(ctx, env, args)
	case "edit":
		runEdit(ctx, env, args)
	case "rm":
		runRm(ctx, env, args)
	case "dup":
		runDup(ctx, env, args)
	case "search":
		runSearch(ctx, env, args)
	case "passwd":
		runPasswd(ctx, env, args)
	case "totp":
		runTOTP(ctx, env, args)
	case "diff":
		runDiff(ctx, env, args)
	case "merge":
		runMerge(ctx, env, args)
	case "status":
		runStatus(env, args)
	case "recent":
		runRecent(env, args)
	case "keyring":
		runKeyring(ctx, env, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parse parses args into fs and checks the number of positional arguments
func parse(fs *flag.FlagSet, args []string, n int, usage string) []string {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if fs.NArg() < n {
		fmt.Fprintf(os.Stderr, "Usage: pwvault %s\n", usage)
		os.Exit(1)
	}
	return fs.Args()
}

func runInit(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	pos := parse(fs, args, 1, "init <vault-file>")

	cmd.Init(ctx, env, pos[0])
}

func runLs(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	sortBy := fs.String("sort", "", "Sort by title, user, modified, created or group (prefix - to reverse)")
	group := fs.String("group", "", "Only list records in this group and its subgroups")
	pos := parse(fs, args, 1, "ls [--sort field] [--group group] <vault-file>")

	cmd.List(ctx, env, pos[0], *sortBy, *group)
}

func runShow(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	password := fs.Bool("password", false, "Show the password")
	pos := parse(fs, args, 2, "show [--password] <vault-file> <record>")

	cmd.Show(ctx, env, pos[0], pos[1], *password)
}

func runAdd(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	fields := cmd.NewRecordFlags(fs)
	pos := parse(fs, args, 1, "add --title title [flags] <vault-file>")

	cmd.Add(ctx, env, pos[0], fields)
}

func runEdit(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	fields := cmd.NewRecordFlags(fs)
	pos := parse(fs, args, 2, "edit [flags] <vault-file> <record>")

	cmd.Edit(ctx, env, pos[0], pos[1], fields)
}

func runRm(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	pos := parse(fs, args, 2, "rm <vault-file> <record> [record...]")

	cmd.Remove(ctx, env, pos[0], pos[1:])
}

func runDup(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("dup", flag.ExitOnError)
	pos := parse(fs, args, 2, "dup <vault-file> <record>")

	cmd.Dup(ctx, env, pos[0], pos[1])
}

func runSearch(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	pos := parse(fs, args, 2, "search <vault-file> <text>")

	cmd.Search(ctx, env, pos[0], pos[1])
}

func runPasswd(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	pos := parse(fs, args, 1, "passwd <vault-file>")

	cmd.Passwd(ctx, env, pos[0])
}

func runTOTP(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("totp", flag.ExitOnError)
	pos := parse(fs, args, 2, "totp <vault-file> <record>")

	cmd.TOTP(ctx, env, pos[0], pos[1])
}

func runDiff(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	passwords := fs.Bool("passwords", false, "Show changed passwords in clear")
	pos := parse(fs, args, 2, "diff [--passwords] <vault-file> <other-vault-file>")

	cmd.Diff(ctx, env, pos[0], pos[1], *passwords)
}

func runMerge(ctx context.Context, env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	strategyName := fs.String("strategy", "newest", "Conflict resolution: newest, local or other")
	dryRun := fs.Bool("dry-run", false, "Report what would change without saving")
	pos := parse(fs, args, 2, "merge [--strategy s] [--dry-run] <vault-file> <other-vault-file>")

	strategy, err := vault.ParseMergeStrategy(*strategyName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	cmd.Merge(ctx, env, pos[0], pos[1], strategy, *dryRun)
}

func runStatus(env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	pos := parse(fs, args, 1, "status <vault-file>")

	cmd.Status(env, pos[0])
}

func runRecent(env *cmd.Env, args []string) {
	fs := flag.NewFlagSet("recent", flag.ExitOnError)
	prune := fs.Bool("prune", false, "Drop entries whose file no longer exists")
	parse(fs, args, 0, "recent [--prune]")

	cmd.Recent(env, *prune)
}

func runKeyring(ctx context.Context, env *cmd.Env, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: pwvault keyring <save|delete|status> <vault-file>")
		os.Exit(1)
	}

	switch args[0] {
	case "save":
		cmd.KeyringSave(ctx, env, args[1])
	case "delete":
		cmd.KeyringDelete(env, args[1])
	case "status":
		cmd.KeyringStatus(env, args[1])
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring subcommand: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Usage: pwvault keyring <save|delete|status> <vault-file>")
		os.Exit(1)
	}
}

func runCompletion(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pwvault completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("pwvault - Password Safe v3 vaults from the command line")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pwvault <command> [flags] <vault-file> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create a new vault file")
	fmt.Println("  ls          List records")
	fmt.Println("  show        Show one record")
	fmt.Println("  add         Add a record")
	fmt.Println("  edit        Change fields of a record")
	fmt.Println("  rm          Remove records")
	fmt.Println("  dup         Duplicate a record")
	fmt.Println("  search      Find records by text")
	fmt.Println("  passwd      Change the vault passphrase")
	fmt.Println("  totp        Print the current two-factor code of a record")
	fmt.Println("  diff        Compare with another vault file")
	fmt.Println("  merge       Merge records from another vault file")
	fmt.Println("  status      Show vault details without the passphrase")
	fmt.Println("  recent      List recently opened vaults")
	fmt.Println("  keyring     Manage the passphrase in the OS keyring")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  pwvault init my.psafe3                          # Create new vault")
	fmt.Println("  pwvault add --title Bank --generate my.psafe3   # Add a record")
	fmt.Println("  pwvault search my.psafe3 bank                   # Find records")
	fmt.Println("  pwvault show --password my.psafe3 Bank          # Reveal a password")
	fmt.Println()
	fmt.Println("Use 'pwvault help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("pwvault init <vault-file>")
		fmt.Println()
		fmt.Println("Creates a new, empty vault file.")
		fmt.Println("Prompts for a passphrase twice, or reads PWVAULT_PASSWORD.")
		fmt.Println("The passphrase cannot be recovered - you must remember it.")
	case "ls":
		fmt.Println("pwvault ls [--sort field] [--group group] <vault-file>")
		fmt.Println()
		fmt.Println("Lists records as uuid, group.title and user name.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --sort    title, user, modified, created or group; prefix - to reverse")
		fmt.Println("            (default from config default_sort)")
		fmt.Println("  --group   Only records in this group and its subgroups")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  pwvault ls my.psafe3")
		fmt.Println("  pwvault ls --sort -modified my.psafe3")
	case "show":
		fmt.Println("pwvault show [--password] <vault-file> <record>")
		fmt.Println()
		fmt.Println("Shows all fields of a record. The password is masked unless")
		fmt.Println("--password is given. <record> is a uuid, group.title or title.")
	case "add":
		fmt.Println("pwvault add --title title [flags] <vault-file>")
		fmt.Println()
		fmt.Println("Adds a record and saves the vault.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --group          Dot-separated group path")
		fmt.Println("  --title          Record title (required)")
		fmt.Println("  --user           User name")
		fmt.Println("  --url            URL")
		fmt.Println("  --notes          Notes")
		fmt.Println("  --totp           Base32 two-factor secret")
		fmt.Println("  --ask-password   Prompt for the password")
		fmt.Println("  --generate       Generate a random password and print it")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  pwvault add --group Finance --title Bank --user alice --ask-password my.psafe3")
	case "edit":
		fmt.Println("pwvault edit [flags] <vault-file> <record>")
		fmt.Println()
		fmt.Println("Changes the fields given as flags and saves the vault.")
		fmt.Println("Takes the same flags as 'add'. A changed password moves the")
		fmt.Println("old one into the record's password history when it is enabled.")
	case "rm":
		fmt.Println("pwvault rm <vault-file> <record> [record...]")
		fmt.Println()
		fmt.Println("Removes records and saves the vault.")
	case "dup":
		fmt.Println("pwvault dup <vault-file> <record>")
		fmt.Println()
		fmt.Println("Copies a record under a new uuid with \" (copy)\" added to its title.")
	case "search":
		fmt.Println("pwvault search <vault-file> <text>")
		fmt.Println()
		fmt.Println("Lists records whose title, user name, URL or notes contain text,")
		fmt.Println("ignoring case.")
	case "passwd":
		fmt.Println("pwvault passwd <vault-file>")
		fmt.Println()
		fmt.Println("Changes the vault passphrase and re-encrypts the file.")
		fmt.Println("A passphrase stored in the keyring is updated too.")
	case "totp":
		fmt.Println("pwvault totp <vault-file> <record>")
		fmt.Println()
		fmt.Println("Prints the current six-digit two-factor code of a record.")
		fmt.Println("Without a two-factor key the password is read as")
		fmt.Println("[sha1|sha256|sha512:]BASE32, spaces ignored.")
	case "diff":
		fmt.Println("pwvault diff [--passwords] <vault-file> <other-vault-file>")
		fmt.Println()
		fmt.Println("Shows records added, removed or changed in the other vault.")
		fmt.Println("Changed passwords are masked unless --passwords is given.")
	case "merge":
		fmt.Println("pwvault merge [--strategy s] [--dry-run] <vault-file> <other-vault-file>")
		fmt.Println()
		fmt.Println("Adds records missing from the vault and resolves records changed")
		fmt.Println("in both files. Records are matched by uuid.")
		fmt.Println()
		fmt.Println("Strategies:")
		fmt.Println("  newest   Keep whichever record was modified last (default)")
		fmt.Println("  local    Always keep the local record")
		fmt.Println("  other    Always take the other vault's record")
	case "status":
		fmt.Println("pwvault status <vault-file>")
		fmt.Println()
		fmt.Println("Shows file details and what the vault index knows about it:")
		fmt.Println("  - Vault ID and record count")
		fmt.Println("  - Key stretch iterations")
		fmt.Println("  - Last save and last opened times")
		fmt.Println("  - Whether the passphrase is stored in the keyring")
		fmt.Println()
		fmt.Println("Does not require a passphrase.")
	case "recent":
		fmt.Println("pwvault recent [--prune]")
		fmt.Println()
		fmt.Println("Lists vaults opened before, most recent first.")
		fmt.Println("--prune drops entries whose file no longer exists.")
	case "keyring":
		fmt.Println("pwvault keyring <save|delete|status> <vault-file>")
		fmt.Println()
		fmt.Println("Manages the vault passphrase in the OS keyring.")
		fmt.Println("A stored passphrase is used instead of prompting.")
	case "completion":
		fmt.Println("pwvault completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(pwvault completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(pwvault completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  pwvault completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
