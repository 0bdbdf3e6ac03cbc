package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/studymesh/studymesh-backend/internal/app"
	"github.com/studymesh/studymesh-backend/internal/realtime"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if application.Bus != nil {
		err := application.Bus.StartForwarder(ctx, func(ev realtime.Event) {
			application.Log.Info("lifecycle event",
				"entity", ev.Entity,
				"entity_id", ev.EntityID,
				"from", ev.From,
				"to", ev.To,
			)
		})
		if err != nil {
			application.Log.Error("start lifecycle forwarder", "error", err)
			os.Exit(1)
		}
	}

	application.Log.Info("studymesh store ready")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	application.Log.Info("shutting down")
}
