// createsuperuser creates an elevated account. Registration over HTTP can
// never do this.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/config"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/credential"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/logger"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/model"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/storage"
)

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Storage == config.StorageMemory {
		return errors.New("STORAGE=memory keeps no data between processes; point this command at MySQL")
	}
	log := logger.Setup(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	users := credential.NewStore(st.Users, credential.Options{
		MinSecretLength: cfg.MinPasswordLength,
		BcryptCost:      cfg.BcryptCost,
	})
	return createSuperuser(ctx, users, args, out)
}

type superuserCreator interface {
	CreateSuperuser(ctx context.Context, r credential.Registration) (*model.User, error)
}

// createSuperuser parses args and creates the account. The password may
// come from SUPERUSER_PASSWORD instead of the command line.
func createSuperuser(ctx context.Context, users superuserCreator, args []string, out io.Writer) error {
	var reg credential.Registration
	fs := pflag.NewFlagSet("createsuperuser", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&reg.Email, "email", "", "email address of the new account (required)")
	fs.StringVar(&reg.Password, "password", "", "password; defaults to $SUPERUSER_PASSWORD")
	fs.StringVar(&reg.GivenName, "given-name", "", "given name")
	fs.StringVar(&reg.FamilyName, "family-name", "", "family name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(reg.Email) == "" {
		return errors.New("--email is required")
	}
	if reg.Password == "" {
		reg.Password = os.Getenv("SUPERUSER_PASSWORD")
	}
	if reg.Password == "" {
		return errors.New("--password or SUPERUSER_PASSWORD is required")
	}

	u, err := users.CreateSuperuser(ctx, reg)
	if err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}
	fmt.Fprintf(out, "superuser %s created (id %d)\n", u.Email, u.ID)
	return nil
}
