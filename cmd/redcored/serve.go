package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/redcore/redcore/internal/aof"
	"github.com/redcore/redcore/internal/command"
	"github.com/redcore/redcore/internal/config"
	"github.com/redcore/redcore/internal/keyspace"
	"github.com/redcore/redcore/internal/logging"
	"github.com/redcore/redcore/internal/resp"
	"github.com/redcore/redcore/internal/server"
	"github.com/redcore/redcore/internal/stats"
	"github.com/redcore/redcore/internal/timer"
	"github.com/redcore/redcore/internal/txn"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the redcored server",
	RunE:  runServe,
}

func init() {
	config.BindFlags(serveCmd)
}

// runServe assembles every component (generalizing the teacher's
// app/main.go main()+handleConnection pair into a cobra RunE): config,
// logger, keyspace, stats, timer queue, optional AOF with replay, the
// command dispatcher, and the server's accept loop.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	logger := logging.New(cfg.LogLevel)

	st := stats.New()
	ks := keyspace.New(st)
	timers := timer.New()

	var aofState *aof.AOF
	if cfg.AOFEnabled {
		policy, err := aof.ParsePolicy(cfg.AppendFsync)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return err
		}
		aofState, err = aof.Open(cfg.AOFFile, policy)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return err
		}
		defer aofState.Close()
	}

	dispatcher := command.New(ks, st, aofState, logger)

	if aofState != nil {
		replayState := txn.New()
		replayed, err := aof.LoadCommands(cfg.AOFFile, func(record resp.Value) error {
			dispatcher.Dispatch(replayState, record, true)
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return err
		}
		logger.Info("aof replay complete", "commands", replayed)
	}

	srv := server.New(dispatcher, timers, logger)
	srv.RegisterPeriodicSweep()
	if aofState != nil && aofState.Policy() == aof.EverySec {
		srv.RegisterAOFFsync()
	}

	if path := cmd.Flags().Lookup("config"); path != nil && path.Value.String() != "" {
		watcher, err := config.NewLevelWatcher(path.Value.String())
		if err == nil {
			go watcher.Start(config.ReadLevel, logger.SetLevel)
			defer watcher.Stop()
		}
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		srv.Shutdown()
	}()

	logger.Info("listening", "port", cfg.Port)
	if err := srv.Serve(ln); err != nil {
		logger.Error("serve failed", "error", err)
		return err
	}
	return nil
}
