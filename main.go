package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"vetbuddy/app/client/speechkit"
	"vetbuddy/app/config"
	"vetbuddy/app/server"
	"vetbuddy/app/service/assistant"
	"vetbuddy/app/service/conversation"
	"vetbuddy/app/service/diag"
	"vetbuddy/app/service/dispatch"
	"vetbuddy/app/service/pets"
	"vetbuddy/app/service/responder"
	"vetbuddy/app/service/speech"
	"vetbuddy/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, speechkit.NewClient)
	do.Provide(di, diag.New)
	do.Provide(di, conversation.New)
	do.Provide(di, responder.New)
	do.Provide(di, speech.New)
	do.Provide(di, dispatch.New)
	do.Provide(di, pets.New)
	do.Provide(di, assistant.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	if err = do.MustInvoke[*server.Server](di).Run(appCtx); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
