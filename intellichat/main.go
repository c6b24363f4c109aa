package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intellichat/intellichat/config"
	"intellichat/intellichat/controllers"
	"intellichat/intellichat/prompt"
	"intellichat/intellichat/routes"
	"intellichat/intellichat/services/genai"
	"intellichat/intellichat/services/speech"
	"intellichat/intellichat/sessions"
	"intellichat/intellichat/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.ErrorLogger.Error("config error", zap.Error(err))
		os.Exit(1)
	}

	// Both model clients are constructed once here and handed down; no
	// lazily cached handles.
	client := genai.NewClient(cfg)
	gateway := genai.NewGateway(client)
	recognizer := speech.NewRecognizer(cfg)
	assembler := prompt.NewAssembler(cfg)
	manager := sessions.NewManager(cfg.SessionTTL)

	reaperCtx, reaperCancel := context.WithCancel(context.Background())
	defer reaperCancel()
	manager.StartReaper(reaperCtx, cfg.ReapInterval)

	chatCtrl := controllers.NewChatController(manager, gateway, assembler)
	speechCtrl := controllers.NewSpeechController(recognizer)
	healthCtrl := controllers.NewHealthController(manager)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Mount("/sessions", routes.ChatRoutes(chatCtrl, manager))
	r.Mount("/speech", routes.SpeechRoutes(speechCtrl))
	r.Mount("/health", routes.HealthRoutes(healthCtrl))

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
