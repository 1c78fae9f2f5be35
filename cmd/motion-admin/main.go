// Package main is the entry point for the Motion Video admin CLI.
// It provides operational commands for running schema migrations,
// inspecting the user and video catalogs, and provisioning accounts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/vijaymanda323/motion-video/internal/auth"
	"github.com/vijaymanda323/motion-video/internal/config"
	"github.com/vijaymanda323/motion-video/internal/lock"
	"github.com/vijaymanda323/motion-video/internal/repository"
	"github.com/vijaymanda323/motion-video/internal/repository/postgres"
	"github.com/vijaymanda323/motion-video/internal/repository/sqlite"
	"github.com/vijaymanda323/motion-video/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]

	switch command {
	case "version":
		fmt.Printf("Motion Video Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "migrate", "users", "videos", "create-user":
		if err := runWithDatabase(*configPath, command, args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runWithDatabase(configPath, command string, args []string) error {
	cfg := config.MustLoad(configPath)
	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repos, db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	switch command {
	case "migrate":
		fmt.Println("Migrations applied")
		return nil
	case "users":
		return listUsers(ctx, repos.User)
	case "videos":
		return listVideos(ctx, repos.Video)
	case "create-user":
		return createUser(ctx, cfg, repos.User, args)
	}
	return nil
}

type migrator interface {
	repository.DatabaseHealth
	Migrate(ctx context.Context) error
}

func openDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Repositories, migrator, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return repository.Repositories{}, nil, err
		}
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return repository.Repositories{}, nil, err
		}
		return repository.Repositories{
			User:  sqlite.NewUserRepository(db),
			Video: sqlite.NewVideoRepository(db),
		}, db, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return repository.Repositories{}, nil, err
		}
		return repository.Repositories{
			User:  postgres.NewUserRepository(db.Pool),
			Video: postgres.NewVideoRepository(db.Pool),
		}, db, nil

	default:
		return repository.Repositories{}, nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}

// createUser provisions an account out-of-band. Validation and email
// normalization go through the same service path the API uses.
func createUser(ctx context.Context, cfg *config.Config, users repository.UserRepository, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: motion-admin create-user <name> <email> <password>")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration)
	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	svc := service.NewAuthService(users, lock.NewNoOpLocker(), tokens, cfg.Auth.BcryptCost, logger)

	out, err := svc.Register(ctx, service.RegisterInput{
		Name:     args[0],
		Email:    args[1],
		Password: args[2],
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created user %d (%s)\n", out.User.ID, out.User.Email)
	return nil
}

func listUsers(ctx context.Context, users repository.UserRepository) error {
	all, err := users.List(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%-6s %-30s %-24s %-8s %s\n", "ID", "EMAIL", "NAME", "STREAK", "CREATED")
	for _, u := range all {
		fmt.Printf("%-6d %-30s %-24s %-8d %s\n",
			u.ID, u.Email, u.Name, u.StreakCount, u.CreatedAt.Format(time.RFC3339))
	}
	fmt.Printf("\n%d user(s)\n", len(all))
	return nil
}

func listVideos(ctx context.Context, videos repository.VideoRepository) error {
	all, err := videos.ListPublic(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%-38s %-28s %-10s %-8s %-12s %s\n", "ID", "TITLE", "CATEGORY", "VIEWS", "SIZE", "UPLOADER")
	for _, v := range all {
		fmt.Printf("%-38s %-28s %-10s %-8d %-12d %s\n",
			v.ID, v.Title, v.Category, v.Views, v.Size, v.UploaderEmail)
	}
	fmt.Printf("\n%d video(s)\n", len(all))
	return nil
}

func printUsage() {
	fmt.Println(`Motion Video Admin CLI

Usage:
  motion-admin [-config path] <command>

Commands:
  migrate         Apply pending schema migrations
  users           List registered users
  videos          List catalog videos
  create-user     Create a user: create-user <name> <email> <password>
  version         Print version information
  help            Show this help message

Examples:
  motion-admin migrate
  motion-admin -config ./config.yaml users
  motion-admin create-user "Jane" jane@example.com secret1`)
}
