package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iftf/duoverkoop/internal/service"
	"github.com/iftf/duoverkoop/internal/store"
	"github.com/iftf/duoverkoop/internal/verification"
)

// env is what a command runs against.
type env struct {
	st         store.Store
	out        io.Writer
	bcryptCost int
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"migrate", "apply the embedded database schema", nil},
	{"create-user", "create a staff account", createUser},
	{"setup-groups", "list staff groups and users without one", setupGroups},
	{"assign-group", "move <username> into <group>", assignGroup},
	{"seed-dev", "load the development catalog", seedDev},
	{"code-stats", "report verification code usage", codeStats},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func createUser(ctx context.Context, e *env, args []string) error {
	fs := newFlags("create-user")
	username := fs.StringP("username", "u", "", "login name (required)")
	password := fs.StringP("password", "p", "", "password (required)")
	email := fs.StringP("email", "e", "", "contact address")
	group := fs.StringP("group", "g", "", "staff group: "+strings.Join(service.Groups, ", "))
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("--username and --password are required")
	}
	u, err := service.NewStaffService(e.st, e.bcryptCost).CreateUser(ctx, *username, *email, *password, *group)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "created user %s (id %d)\n", u.Username, u.ID)
	if u.Group == "" {
		fmt.Fprintln(e.out, "no group assigned; run assign-group before this user can work")
	}
	return nil
}

// setupGroups prints the fixed groups with their capabilities and the
// accounts still waiting for a group.
func setupGroups(ctx context.Context, e *env, args []string) error {
	if err := newFlags("setup-groups").Parse(args); err != nil {
		return err
	}
	for _, g := range service.Groups {
		c := service.CapabilitiesFor(g)
		fmt.Fprintf(e.out, "%-14s create=%t view=%t edit=%t export=%t\n", g, c.CanCreate, c.CanView, c.CanEdit, c.CanExport)
	}
	users, err := service.NewStaffService(e.st, e.bcryptCost).UsersWithoutGroup(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(e.out, "every user has a group")
		return nil
	}
	fmt.Fprintln(e.out, "users without a group:")
	for _, u := range users {
		fmt.Fprintf(e.out, "  %s\n", u.Username)
	}
	return nil
}

func assignGroup(ctx context.Context, e *env, args []string) error {
	fs := newFlags("assign-group")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: assign-group <username> <group>")
	}
	u, err := service.NewStaffService(e.st, e.bcryptCost).AssignGroup(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s is now in %s\n", u.Username, u.Group)
	return nil
}

func seedDev(ctx context.Context, e *env, args []string) error {
	if err := newFlags("seed-dev").Parse(args); err != nil {
		return err
	}
	if err := service.NewCatalogService(e.st).SeedDev(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "development catalog loaded")
	return nil
}

func codeStats(ctx context.Context, e *env, args []string) error {
	if err := newFlags("code-stats").Parse(args); err != nil {
		return err
	}
	used, err := e.st.CountVerificationCodes(ctx)
	if err != nil {
		return err
	}
	s := verification.Stats(used)
	fmt.Fprintf(e.out, "total combinations: %d\nused codes:         %d\nremaining:          %d\nusage:              %.4f%%\n",
		s.TotalCombinations, s.UsedCodes, s.Remaining, s.UsagePercentage)
	return nil
}
