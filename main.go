package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/illarion/otpvault/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(ctx, os.Args[2:])
	case "add":
		runAdd(ctx, os.Args[2:])
	case "ls", "list":
		runList(ctx, os.Args[2:])
	case "search":
		runSearch(ctx, os.Args[2:])
	case "code":
		runCode(ctx, os.Args[2:])
	case "verify":
		runVerify(ctx, os.Args[2:])
	case "update":
		runUpdate(ctx, os.Args[2:])
	case "rm":
		runRm(ctx, os.Args[2:])
	case "reorder":
		runReorder(ctx, os.Args[2:])
	case "folders":
		runFolders(ctx, os.Args[2:])
	case "mv":
		runMv(ctx, os.Args[2:])
	case "export":
		runExport(ctx, os.Args[2:])
	case "import":
		runImport(ctx, os.Args[2:])
	case "restore":
		runRestore(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "qr":
		runQR(ctx, os.Args[2:])
	case "pin":
		runPin(ctx, os.Args[2:])
	case "passwd":
		cmd.PinSet(ctx)
	case "prefs":
		runPrefs(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "wipe":
		runWipe(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runInit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	mustParse(fs, args)
	cmd.Init(ctx)
}

func runAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	uri := fs.String("uri", "", "otpauth:// provisioning URI")
	issuer := fs.String("issuer", "", "Service name (e.g. GitHub)")
	label := fs.String("label", "", "Account label (e.g. me@example.com)")
	secret := fs.String("secret", "", "Base32 secret (prompted if omitted)")
	algorithm := fs.String("algorithm", "", "SHA1, SHA256 or SHA512")
	digits := fs.Int("digits", 0, "Code length (6 or 8)")
	period := fs.Int("period", 0, "Code period in seconds")
	folder := fs.String("folder", "", "Folder name")
	mustParse(fs, args)

	if *uri != "" {
		cmd.AddURI(ctx, *uri)
		return
	}
	cmd.Add(ctx, cmd.AddOptions{
		Issuer:    *issuer,
		Label:     *label,
		Secret:    *secret,
		Algorithm: *algorithm,
		Digits:    *digits,
		Period:    *period,
		Folder:    *folder,
	})
}

func runList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	mustParse(fs, args)
	cmd.List(ctx, strings.Join(fs.Args(), " "))
}

func runSearch(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	mustParse(fs, args)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault search <query>")
		os.Exit(1)
	}
	cmd.List(ctx, strings.Join(fs.Args(), " "))
}

func runCode(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("code", flag.ExitOnError)
	mustParse(fs, args)
	cmd.Code(ctx, strings.Join(fs.Args(), " "))
}

func runVerify(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	mustParse(fs, args)
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault verify <query> <token>")
		os.Exit(1)
	}
	cmd.Verify(ctx, fs.Arg(0), fs.Arg(1))
}

func runUpdate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	issuer := fs.String("issuer", "", "New issuer")
	label := fs.String("label", "", "New label")
	secret := fs.String("secret", "", "New secret")
	algorithm := fs.String("algorithm", "", "New algorithm")
	digits := fs.Int("digits", 0, "New digit count")
	period := fs.Int("period", 0, "New period")
	mustParse(fs, args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault update [flags] <account-id>")
		os.Exit(1)
	}
	cmd.Update(ctx, fs.Arg(0), cmd.UpdateOptions{
		Issuer:    *issuer,
		Label:     *label,
		Secret:    *secret,
		Algorithm: *algorithm,
		Digits:    *digits,
		Period:    *period,
	})
}

func runRm(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	all := fs.Bool("all", false, "Delete every account")
	force := fs.Bool("force", false, "Skip confirmation")
	mustParse(fs, args)

	if *all {
		cmd.RemoveAll(ctx, *force)
		return
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault rm <account-id> | rm -all")
		os.Exit(1)
	}
	cmd.Remove(ctx, fs.Arg(0))
}

func runReorder(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("reorder", flag.ExitOnError)
	mustParse(fs, args)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault reorder <account-id> [account-id...]")
		os.Exit(1)
	}
	cmd.Reorder(ctx, fs.Args())
}

func runFolders(ctx context.Context, args []string) {
	if len(args) == 0 {
		cmd.FolderList(ctx)
		return
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("folders add", flag.ExitOnError)
		color := fs.String("color", "", "Display color")
		mustParse(fs, args[1:])
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "Usage: otpvault folders add [-color c] <name>")
			os.Exit(1)
		}
		cmd.FolderAdd(ctx, fs.Arg(0), *color)
	case "rm":
		fs := flag.NewFlagSet("folders rm", flag.ExitOnError)
		mustParse(fs, args[1:])
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "Usage: otpvault folders rm <folder-id>")
			os.Exit(1)
		}
		cmd.FolderRemove(ctx, fs.Arg(0))
	case "ls":
		cmd.FolderList(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown folders subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func runMv(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("mv", flag.ExitOnError)
	mustParse(fs, args)
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault mv <account-id> [folder-id]")
		os.Exit(1)
	}
	cmd.Move(ctx, fs.Arg(0), fs.Arg(1))
}

func runExport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "otpvault-backup.json", "Output file")
	mustParse(fs, args)
	cmd.Export(ctx, *out)
}

func runImport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	mustParse(fs, args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault import <backup-file>")
		os.Exit(1)
	}
	cmd.Import(ctx, fs.Arg(0))
}

func runRestore(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	mustParse(fs, args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault restore <accounts-json-file>")
		os.Exit(1)
	}
	cmd.Restore(ctx, fs.Arg(0))
}

func runDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	mustParse(fs, args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault diff <backup-file>")
		os.Exit(1)
	}
	cmd.Diff(ctx, fs.Arg(0))
}

func runQR(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("qr", flag.ExitOnError)
	png := fs.String("png", "", "Write PNG to file instead of terminal output")
	mustParse(fs, args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault qr [-png file] <account-id>")
		os.Exit(1)
	}
	cmd.QR(ctx, fs.Arg(0), *png)
}

func runPin(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault pin <set|enable|disable|rm|remember|forget>")
		os.Exit(1)
	}
	switch args[0] {
	case "set":
		cmd.PinSet(ctx)
	case "enable":
		cmd.PinEnable(ctx)
	case "disable":
		cmd.PinDisable(ctx)
	case "rm":
		cmd.PinRemove(ctx)
	case "remember":
		cmd.PinRemember(ctx)
	case "forget":
		cmd.PinForget(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown pin subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func runPrefs(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("prefs", flag.ExitOnError)
	mustParse(fs, args)
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "Usage: otpvault prefs <autolock|accent> [value]")
		os.Exit(1)
	}
	cmd.Prefs(ctx, fs.Arg(0), fs.Arg(1))
}

func runStatus(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	mustParse(fs, args)
	cmd.Status(ctx)
}

func runWipe(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("wipe", flag.ExitOnError)
	mustParse(fs, args)
	cmd.Wipe(ctx)
}

func mustParse(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`otpvault - encrypted one-time password vault

Usage: otpvault <command> [options]

Setup:
  init       Create the vault (optionally with a PIN)

Accounts:
  add        Add an account (flags or -uri otpauth://...)
  ls         List accounts (optional query)
  search     Search accounts by issuer or label
  code       Show live codes with remaining validity
  verify     Check a token against an account
  update     Change an account's fields
  rm         Remove an account (or -all)
  reorder    Apply an explicit account order

Folders:
  folders    List folders; 'folders add', 'folders rm'
  mv         Move an account into a folder (or out of one)

Backup:
  export     Write an encrypted backup file
  import     Merge an encrypted backup (duplicates skipped)
  restore    Merge a plaintext JSON account array
  diff       Preview what a backup would change

Security:
  pin        set | enable | disable | rm | remember | forget
  passwd     Alias of 'pin set'
  prefs      autolock | accent
  status     Show vault state
  wipe       Destroy all data (typed confirmation)

Environment:
  OTPVAULT_HOME       Vault directory (default ~/.otpvault)
  OTPVAULT_PIN        PIN for non-interactive use
  OTPVAULT_LOG_LEVEL  debug | info | warn | error`)
}
