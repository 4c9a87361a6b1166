package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/config"
	"github.com/servmarket/servmarket-backend/pkg/db"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/security"
)

type options struct {
	firstName string
	lastName  string
	kind      string
	role      string
	email     string
	password  string
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "create-user"})
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.firstName, "first-name", "", "first name (required)")
	flag.StringVar(&opts.lastName, "last-name", "", "last name (required)")
	flag.StringVar(&opts.kind, "kind", "internal", "account kind: internal|api")
	flag.StringVar(&opts.role, "role", "customer", "role: administrator|entrepreneur|customer")
	flag.StringVar(&opts.email, "email", "", "email (internal accounts)")
	flag.StringVar(&opts.password, "password", "", "password (internal accounts, generated when empty)")
	flag.Parse()

	input, err := opts.toInput()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "create-user",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx := context.Background()
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, err := users.NewService(users.ServiceParams{
		Repo:           users.NewRepository(dbClient.DB()),
		PasswordHasher: security.NewHasher(cfg.Password.Hash()),
		APIKeyHasher:   security.NewHasher(cfg.APIKey.Hash()),
		GenerateToken:  security.GenerateToken,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to build user service", err)
		os.Exit(1)
	}

	result, err := svc.Create(ctx, input)
	if err != nil {
		logg.Error(ctx, "failed to create user", err)
		os.Exit(1)
	}
	report(os.Stdout, result)
}

func (o options) toInput() (users.CreateUserInput, error) {
	kind, err := enums.ParseUserKind(o.kind)
	if err != nil {
		return users.CreateUserInput{}, err
	}
	role, err := enums.ParseRole(o.role)
	if err != nil {
		return users.CreateUserInput{}, err
	}
	in := users.CreateUserInput{
		FirstName: strings.TrimSpace(o.firstName),
		LastName:  strings.TrimSpace(o.lastName),
		Kind:      kind,
		Role:      role,
	}
	if in.FirstName == "" || in.LastName == "" {
		return users.CreateUserInput{}, fmt.Errorf("-first-name and -last-name are required")
	}

	if kind == enums.UserKindInternal {
		if o.email == "" {
			return users.CreateUserInput{}, fmt.Errorf("-email is required for internal accounts")
		}
		email := o.email
		in.Email = &email
		if o.password != "" {
			password := o.password
			in.Password = &password
		}
	}
	return in, nil
}

// report prints the created account. The API key and a generated password are
// shown here and nowhere else.
func report(w io.Writer, result *users.CreateUserResult) {
	fmt.Fprintf(w, "created user id=%d kind=%s role=%s\n", result.User.ID, result.User.Kind, result.User.Role)
	if result.APIKey != "" {
		fmt.Fprintf(w, "api key (store it now, it cannot be shown again): %s\n", result.APIKey)
	}
	if result.TemporaryPassword != "" {
		fmt.Fprintf(w, "temporary password (share it securely, it cannot be shown again): %s\n", result.TemporaryPassword)
	}
}
