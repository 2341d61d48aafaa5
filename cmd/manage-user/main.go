package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/SundayYogurt/auth_service/config"
	"github.com/SundayYogurt/auth_service/internal/helper"
	"github.com/SundayYogurt/auth_service/internal/logging"
	"github.com/SundayYogurt/auth_service/internal/repository"
	"github.com/SundayYogurt/auth_service/internal/services"
)

const usage = "usage: manage-user -email <email> [-grant role] [-revoke role] [-auth-id id] [-history n]"

type options struct {
	email   string
	grant   string
	revoke  string
	authID  string
	history int
}

func parseArgs(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("manage-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.email, "email", "", "account email")
	fs.StringVar(&o.grant, "grant", "", "role to grant")
	fs.StringVar(&o.revoke, "revoke", "", "role to revoke")
	fs.StringVar(&o.authID, "auth-id", "", "external identity id to link")
	fs.IntVar(&o.history, "history", 0, "print the last n audit entries")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if strings.TrimSpace(o.email) == "" {
		return o, errors.New(usage)
	}
	return o, nil
}

func run(ctx context.Context, o options, store *repository.Store, out io.Writer) error {
	user, err := store.Users.FindUserByEmail(ctx, helper.NormalizeEmail(o.email))
	if err != nil {
		return fmt.Errorf("find user %s: %w", o.email, err)
	}

	changed := false
	if o.grant != "" && user.GrantRole(o.grant) {
		changed = true
	}
	if o.revoke != "" && user.RevokeRole(o.revoke) {
		changed = true
	}
	if changed {
		if err := store.Users.SaveUser(ctx, user); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
	}
	if id := strings.TrimSpace(o.authID); id != "" {
		linker := services.NewIdentityLinker(store.Users, store.Profiles, slog.Default())
		if err := linker.Link(ctx, user, id); err != nil {
			return fmt.Errorf("link identity: %w", err)
		}
	}

	authID := "-"
	if user.HasLinkedIdentity() {
		authID = *user.AuthID
	}
	fmt.Fprintf(out, "user %s id=%s active=%t roles=[%s] auth_id=%s\n",
		user.Email, user.ID, user.IsActive, strings.Join(user.Roles, ","), authID)

	if o.history > 0 {
		logs, err := services.NewAuditService(store.Audit, nil).History(ctx, user.ID, o.history)
		if err != nil {
			return fmt.Errorf("audit history: %w", err)
		}
		for _, l := range logs {
			fmt.Fprintf(out, "%s %s\n", l.OccurredAt.Format(time.RFC3339), l.Action)
		}
	}
	return nil
}

func main() {
	o, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := repository.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open store", "err", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	if err := run(ctx, o, store, os.Stdout); err != nil {
		log.Error("manage-user failed", "err", err)
		os.Exit(1)
	}
}
