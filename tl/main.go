package main

import (
	"context"
	"flag"
	"os"
	"path"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/zack-schrag/treeline-money-sub002/cmd"
)

func main() {
	// A .env in the working directory or the data directory can set
	// TREELINE_DIR and TREELINE_DEMO_MODE before anything reads them.
	// Load never overrides variables already in the environment.
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(cmd.DataDir(), ".env"))

	// When invoked by a shell completion hook, this prints candidates
	// and exits.
	cmd.Completion().Complete("tl")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
