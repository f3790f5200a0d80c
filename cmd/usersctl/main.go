// usersctl manages accounts directly in the store. Roles other than
// user can only be assigned from here.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/repositories"
	"todo-manager/backend/internal/server"
	"todo-manager/backend/internal/services"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"
)

const usage = `Usage: usersctl <command> [flags]

Commands:
  create     create an account (--name, --email, --password, --role)
  set-role   change the role of an account (--email, --role)
  rename     change the display name of an account (--email, --name)
  list       list all accounts

The store is selected with the same environment as the server
(DB_DRIVER, DB_PATH, DB_HOST, ...).
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type commandEnv struct {
	cfg   *config.Config
	users repositories.UserRepository
	auth  *services.AuthServiceImpl
	names *repositories.CachedDirectory
	out   io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	command, rest := args[0], args[1:]

	var handler func(context.Context, *commandEnv, []string) error
	switch command {
	case "create":
		handler = runCreate
	case "set-role":
		handler = runSetRole
	case "rename":
		handler = runRename
	case "list":
		handler = runList
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pool, err := server.OpenDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := repositories.NewUserRepository(pool.DB)
	env := &commandEnv{
		cfg:   cfg,
		users: users,
		auth:  services.NewAuthService(users, cfg.Auth.BCryptCost),
		out:   out,
	}
	// Only the shared Redis tier needs clearing; servers without it
	// resolve names on every read.
	if nameCache := server.NewNameCache(ctx, cfg); nameCache != nil {
		defer nameCache.Close()
		env.names = repositories.NewCachedDirectory(repositories.NoopDirectory{}, nameCache, cfg.Directory.CacheTTL)
	}
	return handler(ctx, env, rest)
}

func parseFlags(name string, flagSet *pflag.FlagSet, args []string) error {
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: usersctl %s [flags]\n", name)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}
	return nil
}

func runCreate(ctx context.Context, env *commandEnv, args []string) error {
	var name, email, password, roleFlag string
	flagSet := pflag.NewFlagSet("create", pflag.ContinueOnError)
	flagSet.StringVar(&name, "name", "", "display name")
	flagSet.StringVar(&email, "email", "", "login email")
	flagSet.StringVarP(&password, "password", "p", "", "initial password (min 8 characters)")
	flagSet.StringVar(&roleFlag, "role", string(models.RoleUser), "user, manager or admin")
	if err := parseFlags("create", flagSet, args); err != nil {
		return err
	}

	if name == "" || email == "" {
		return errors.New("--name and --email are required")
	}
	if len(password) < 8 {
		return errors.New("--password must be at least 8 characters")
	}
	role, err := models.ParseRole(roleFlag)
	if err != nil {
		return err
	}

	user, err := env.auth.CreateUser(ctx, services.RegistrationRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "created %s (%s) role=%s id=%s\n", user.Name, user.Email, user.Role, user.ID)
	return nil
}

func runSetRole(ctx context.Context, env *commandEnv, args []string) error {
	var email, roleFlag string
	flagSet := pflag.NewFlagSet("set-role", pflag.ContinueOnError)
	flagSet.StringVar(&email, "email", "", "login email")
	flagSet.StringVar(&roleFlag, "role", "", "user, manager or admin")
	if err := parseFlags("set-role", flagSet, args); err != nil {
		return err
	}

	if email == "" || roleFlag == "" {
		return errors.New("--email and --role are required")
	}
	role, err := models.ParseRole(roleFlag)
	if err != nil {
		return err
	}

	user, err := env.users.SetRole(ctx, email, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "%s is now %s; existing sessions keep their old role until they expire\n", user.Email, user.Role)
	return nil
}

func runRename(ctx context.Context, env *commandEnv, args []string) error {
	var email, name string
	flagSet := pflag.NewFlagSet("rename", pflag.ContinueOnError)
	flagSet.StringVar(&email, "email", "", "login email")
	flagSet.StringVar(&name, "name", "", "new display name")
	if err := parseFlags("rename", flagSet, args); err != nil {
		return err
	}

	if email == "" || name == "" {
		return errors.New("--email and --name are required")
	}

	user, err := env.users.Rename(ctx, email, name)
	if err != nil {
		return err
	}
	if env.names != nil {
		if err := env.names.Invalidate(ctx, user.ID); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cached owner name for %s not cleared: %v\n", user.ID, err)
		}
	}
	fmt.Fprintf(env.out, "%s renamed to %s\n", user.Email, user.Name)
	return nil
}

func runList(ctx context.Context, env *commandEnv, args []string) error {
	flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
	if err := parseFlags("list", flagSet, args); err != nil {
		return err
	}

	users, err := env.users.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(env.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}
