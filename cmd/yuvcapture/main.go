package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tauraamui/yuvcapture/pkg/config"
	"github.com/tauraamui/yuvcapture/pkg/grabber"
	"github.com/tauraamui/yuvcapture/pkg/log"
	"gocv.io/x/gocv"
)

func run() error {
	server := grabber.NewServer(config.DefaultResolver(), nil, nil)

	if err := server.LoadConfiguration(); err != nil {
		return err
	}

	// installed after the prompts so an interrupt while answering them
	// still ends the process straight away
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	if err := server.Open(); err != nil {
		return err
	}

	ctx, cancelStartup := context.WithCancel(context.Background())
	defer cancelStartup()

	started := make(chan error, 1)
	go func() { started <- startupServer(ctx, server) }()

	select {
	case err := <-started:
		if err != nil {
			<-server.Shutdown()
			return err
		}
	case killSignal := <-interrupt:
		fmt.Print("\r")
		log.Warn("Received signal: %s", killSignal)
		cancelStartup()
		<-server.Shutdown()
		return nil
	}

	select {
	case <-server.Finished():
	case killSignal := <-interrupt:
		fmt.Print("\r")
		log.Warn("Received signal: %s", killSignal)
	}

	log.Info("Shutting down...")
	<-server.Shutdown()
	logMatProfile()
	return server.Err()
}

func startupServer(ctx context.Context, server *grabber.Server) error {
	if err := server.ConnectWithCancel(ctx); err != nil {
		return err
	}
	server.SetupProcesses()
	server.RunProcesses()
	return nil
}

func logMatProfile() {
	if gocv.MatProfile.Count() == 0 {
		return
	}
	var b bytes.Buffer
	gocv.MatProfile.WriteTo(&b, 1) //nolint
	log.Debug("Unclosed mats: %d\n%s", gocv.MatProfile.Count(), b.String())
}

func init() {
	log.SetLevel(os.Getenv("YUVCAPTURE_LOGGING_LEVEL"))
}

func main() {
	if err := run(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
