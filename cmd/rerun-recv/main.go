// Command rerun-recv is a headless debug receiver. It listens for SDK
// connections on the viewer address, prints every decoded record batch as a
// text table and reports receive bandwidth once per second.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zrezke/rerun/pkg/comms"
	"github.com/zrezke/rerun/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel())

	recv := newReceiver(logger, os.Stdout)
	srv, err := comms.NewServer(cfg.ViewerAddr(), recv, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to start receiver")
	}
	go srv.Serve()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			recv.logBandwidth()
		case sig := <-stop:
			logger.WithField("signal", sig.String()).Info("Shutting down")
			srv.Stop()
			return
		}
	}
}
