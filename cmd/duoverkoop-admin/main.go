// Command duoverkoop-admin prepares a deployment: it applies the schema,
// manages staff accounts and groups, loads the development catalog and
// reports verification code usage.
//
//	duoverkoop-admin migrate
//	duoverkoop-admin create-user -u alice -p secret [-e alice@example.com] [-g "POS Staff"]
//	duoverkoop-admin setup-groups
//	duoverkoop-admin assign-group alice "Support Staff"
//	duoverkoop-admin seed-dev
//	duoverkoop-admin code-stats
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/iftf/duoverkoop/internal/config"
	"github.com/iftf/duoverkoop/internal/database"
	"github.com/iftf/duoverkoop/internal/repository"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <command> [flags]\n\ncommands:\n", os.Args[0])
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", c.name, c.summary)
	}
}

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" {
		usage()
		os.Exit(2)
	}
	cmd, ok := lookup(os.Args[1])
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.StoreDriver != config.StoreMySQL {
		fmt.Fprintln(os.Stderr, "duoverkoop-admin needs STORE_DRIVER=mysql")
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}
	defer db.Close()

	if cmd.name == "migrate" {
		err = database.Migrate(ctx, db)
		if err == nil {
			fmt.Println("schema applied")
		}
	} else {
		err = cmd.run(ctx, &env{st: repository.NewStore(db), out: os.Stdout, bcryptCost: cfg.BcryptCost}, os.Args[2:])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd.name, err)
		os.Exit(1)
	}
}

// newFlags returns a flag set for a subcommand that reports errors instead
// of exiting, so commands stay testable.
func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}
