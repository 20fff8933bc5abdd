package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/handler"
	"inkwell/internal/queue"
	redisclient "inkwell/internal/redis"
	"inkwell/internal/repository"
	"inkwell/internal/service"
	"inkwell/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. Optional media storage
	var uploader service.ImageUploader
	var mediaService *service.MediaService
	if cfg.MediaEnabled() {
		mediaService, err = service.NewMediaService(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to init media storage: %w", err)
		}
		uploader = mediaService
	} else {
		log.Println("[Server] R2 not configured, image uploads disabled")
	}

	// 4. Optional Redis stream for media cleanup
	var publisher queue.Publisher
	var manager *worker.Manager
	if cfg.RedisURL != "" {
		rdb, err := redisclient.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		publisher = queue.NewPublisher(rdb)

		if mediaService != nil {
			mcfg := worker.DefaultManagerConfig()
			mcfg.WorkerCount = cfg.WorkerCount
			manager = worker.NewManager(queue.NewConsumer(rdb), worker.NewHandler(mediaService), mcfg)
			if err := manager.Start(ctx); err != nil {
				return fmt.Errorf("failed to start media workers: %w", err)
			}
			defer manager.Stop()
		}
	} else {
		log.Println("[Server] REDIS_URL not set, released media will not be cleaned up")
	}

	// 5. Wire repositories, services and handlers
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	userService := service.NewUserService(userRepo, publisher, cfg.DefaultAvatarURL)
	authService := service.NewAuthService(cfg)
	postService := service.NewPostService(postRepo, userRepo, ratingRepo, bookmarkRepo, commentRepo, publisher)
	ratingService := service.NewRatingService(ratingRepo, postRepo)
	bookmarkService := service.NewBookmarkService(bookmarkRepo, postRepo, userRepo, ratingRepo)
	rankingService := service.NewRankingService(postRepo, userRepo, ratingRepo, bookmarkRepo)
	commentService := service.NewCommentService(commentRepo, postRepo, userRepo)

	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(userService, authService),
		UserHandler:    handler.NewUserHandler(userService, postService, bookmarkService, rankingService, uploader),
		PostHandler:    handler.NewPostHandler(postService, ratingService, bookmarkService, rankingService, uploader),
		CommentHandler: handler.NewCommentHandler(commentService),
		AdminHandler:   handler.NewAdminHandler(userService),
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// 6. Serve until interrupted
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
