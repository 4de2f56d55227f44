// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/internal"
	"github.com/oneconcern/lineagesync/pkg/config"
	"github.com/oneconcern/lineagesync/pkg/dlogger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lineagesync",
	Short: "lineagesync shares cell lineages between annotators",
	Long: `lineagesync shares cell lineage projects through a git remote.

Each annotator works on a local copy of the lineage, saves it, then
synchronizes with the others. Diverging edits are merged automatically
whenever the lineages do not contradict each other.
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if lineageFlags.root.cpuProf {
			f, err := os.Create("cpu.prof")
			if err != nil {
				log.Fatal(err)
			}
			_ = pprof.StartCPUProfile(f)
		}
		if !cmd.Flags().Changed("loglevel") && settings.LogLevel != "" {
			lineageFlags.root.logLevel = settings.LogLevel
		}
		l, err := dlogger.GetConsoleLogger(lineageFlags.root.logLevel)
		if err != nil {
			wrapFatalln("failed to set log level", err)
			return
		}
		logger = l
		if lineageFlags.root.memPoll > 0 {
			stopMemPoll = internal.MemPoll(internal.MemPollParams{
				MinMBs: []internal.MinProfMB{{HeapSys: lineageFlags.root.memPoll}},
				Logger: logger,
			})
		}
		if !cmd.Flags().Changed("metrics") && settings.Metrics.Enabled {
			enabled := true
			lineageFlags.root.metrics.Enabled = &enabled
		}
		if lineageFlags.root.metrics.URL == "" {
			lineageFlags.root.metrics.URL = settings.Metrics.URL
		}
		initMetrics(logger)
	},
	// upstream api note:  *PostRun functions aren't called in case of a panic() in Run
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopMemPoll != nil {
			stopMemPoll()
		}
		if lineageFlags.root.cpuProf {
			pprof.StopCPUProfile()
		}
		_ = logger.Sync()
	},
}

var (
	settings    = config.Default()
	logger      = zap.NewNop()
	stopMemPoll func()
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addLogLevel(rootCmd)
	addProjectFlag(rootCmd)
	addCPUProfFlag(rootCmd)
	addMemPollFlag(rootCmd)
	addYesFlag(rootCmd)
	addMetricsFlag(rootCmd)
	addMetricsURLFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	s, err := config.Load(config.New())
	if err != nil {
		wrapFatalln("failed to read settings", err)
		return
	}
	settings = s
}
