package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/perfcore/internal/loadgen"
)

const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultRunTime = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		teams    = flag.Int("teams", loadgen.DefaultTeams, "Number of teams to submit")
		size     = flag.Int("size", loadgen.DefaultTeamSize, "Members per team")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		policy   = flag.String("policy", "", "Scoring policy (default: the service default)")
		seed     = flag.Uint64("seed", 0, "Generator seed (default: from the clock)")
		timeout  = flag.Duration("timeout", loadgen.DefaultTimeout, "HTTP request timeout")
		output   = flag.String("output", "", "Save the generated teams to this JSON file")
		logFile  = flag.String("log", "", "Also write the log to this file")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		showHelp = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *showHelp {
		loadgen.ShowHelp()
		return
	}

	closeLog, err := loadgen.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTime)
	_, err = loadgen.Run(ctx, &loadgen.Config{
		BaseURL:    *baseURL,
		Teams:      *teams,
		TeamSize:   *size,
		Workers:    *workers,
		Timeout:    *timeout,
		Policy:     *policy,
		Seed:       *seed,
		OutputFile: *output,
		Verbose:    *verbose,
	})
	cancel()
	_ = closeLog()

	if err != nil {
		_, _ = os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
