// README: Entry point; loads config, wires services, starts HTTP server and the fulfillment worker.
package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concierge/internal/catalog"
	"concierge/internal/config"
	httptransport "concierge/internal/http"
	"concierge/internal/infra"
	"concierge/internal/mail"
	"concierge/internal/modules/dialog"
	"concierge/internal/modules/fulfill"
	"concierge/internal/modules/recommend"
	"concierge/internal/modules/suggest"
	"concierge/internal/modules/userstate"
	"concierge/internal/nlu"
	"concierge/internal/queue"
	"concierge/internal/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var verifier infra.TokenVerifier
	if cfg.Firebase.ProjectID != "" {
		verifier, err = infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Fatalf("firebase init: %v", err)
		}
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	searchClient := search.NewClient(search.Config(cfg.Search))
	mailClient := mail.NewClient(mail.Config(cfg.Mail))

	catalogStore := catalog.NewStore(dbPool)
	stateStore := userstate.NewStore(dbPool)
	requestQueue := queue.New(redisClient, cfg.Queue.Name)

	dialogSvc := dialog.NewService(requestQueue, stateStore)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	suggestSvc := suggest.NewService(searchClient, catalogStore, cfg.Suggest.PoolSize, cfg.Suggest.MaxPicks, rng)

	fulfillSvc := fulfill.NewService(requestQueue, suggestSvc, mailClient, fulfill.Config{
		BatchSize:    cfg.Queue.BatchSize,
		Lease:        cfg.Queue.Lease,
		PollInterval: cfg.Queue.PollInterval,
	})

	recommendSvc := recommend.NewService(stateStore, suggestSvc, cfg.Recommend.Timeout)

	var engine nlu.Engine
	if cfg.NLU.GeminiKey != "" {
		geminiEngine, err := nlu.NewGeminiEngine(ctx, cfg.NLU.GeminiKey, redisClient, dialogSvc)
		if err != nil {
			log.Fatalf("nlu init: %v", err)
		}
		defer geminiEngine.Close()
		engine = geminiEngine
	} else {
		log.Print("GEMINI_API_KEY not set; chat route disabled")
	}

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Dialog:    dialogSvc,
		Recommend: recommendSvc,
		Engine:    engine,
		Verifier:  verifier,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go fulfillSvc.Run(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
