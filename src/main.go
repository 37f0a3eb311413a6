package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"tokensum/src/args"
	"tokensum/src/commands"
	"tokensum/src/database"
)

// commandFunc runs one subcommand against the metadata database
type commandFunc func(ctx context.Context, sub args.SubCommand, db database.DBAdapter) error

var subCommands = map[string]commandFunc{
	"create": func(ctx context.Context, sub args.SubCommand, db database.DBAdapter) error {
		return commands.RunCreate(ctx, sub.CreateArgs, db)
	},
	"drop": func(ctx context.Context, sub args.SubCommand, db database.DBAdapter) error {
		return commands.RunDrop(ctx, sub.DropArgs, db)
	},
	"list": func(ctx context.Context, _ args.SubCommand, db database.DBAdapter) error {
		return commands.RunList(ctx, db)
	},
	"put-mapping": func(ctx context.Context, sub args.SubCommand, db database.DBAdapter) error {
		return commands.RunPutMapping(ctx, sub.PutMappingArgs, db)
	},
	"mapping": func(ctx context.Context, sub args.SubCommand, db database.DBAdapter) error {
		return commands.RunMapping(ctx, sub.MappingArgs, db)
	},
	"index": func(ctx context.Context, sub args.SubCommand, db database.DBAdapter) error {
		return commands.RunIndex(ctx, sub.IndexArgs, db)
	},
	"search": func(ctx context.Context, sub args.SubCommand, db database.DBAdapter) error {
		return commands.RunSearch(ctx, sub.SearchArgs, db)
	},
	"analyze": func(ctx context.Context, sub args.SubCommand, db database.DBAdapter) error {
		return commands.RunAnalyze(ctx, sub.AnalyzeArgs, db)
	},
}

func databaseURL(arguments *args.Args) (string, error) {
	if arguments.DB != "" {
		return arguments.DB, nil
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", errors.New("database url must be provided using either --db or DATABASE_URL env var")
}

func run(ctx context.Context, arguments *args.Args) error {
	// no subcommand: cobra already printed the help
	if arguments.SubCmd.Name == "" {
		return nil
	}
	command, ok := subCommands[arguments.SubCmd.Name]
	if !ok {
		return fmt.Errorf("unknown subcommand: %s", arguments.SubCmd.Name)
	}

	dbURL, err := databaseURL(arguments)
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return command(ctx, arguments.SubCmd, db)
}

// setupLogging reads LOG_LEVEL, defaulting to debug when DEBUG=true
func setupLogging() {
	level := logrus.InfoLevel
	if os.Getenv("DEBUG") == "true" {
		level = logrus.DebugLevel
	}

	if name := os.Getenv("LOG_LEVEL"); name != "" {
		parsed, err := logrus.ParseLevel(name)
		if err != nil {
			logrus.Warnf("Invalid log level '%s', using %s", name, level)
		} else {
			level = parsed
		}
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func main() {
	// .env is optional
	_ = godotenv.Load()
	setupLogging()

	arguments, err := args.ParseArgs()
	if err != nil {
		logrus.Fatalf("Failed to parse arguments: %v", err)
	}

	// interrupting cancels the running command
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, arguments); err != nil {
		stop()
		logrus.Fatalf("Application error: %v", err)
	}
}
