package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"SermoProject/global"
	"SermoProject/logger"
	message "SermoProject/module/message"
	msgservice "SermoProject/module/message/service"
	userservice "SermoProject/module/user/service"
	"SermoProject/service/chat"
	"SermoProject/service/chat/handlers"
	"SermoProject/service/natsx"
	"SermoProject/service/storage"
	storageredis "SermoProject/service/storage/redis"
	"SermoProject/tools/ids"
	"SermoProject/tools/security"
)

func main() {
	conf, err := global.Load()
	if err != nil {
		logger.Errorf("[main] load config: %v", err)
		os.Exit(1)
	}
	if conf.GatewayID == "" {
		conf.GatewayID = "gw-" + ids.GenerateString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Redis: presence/typing state
	if err := storageredis.Init(storageredis.Config{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
		PoolSize: conf.RedisPoolSize,
	}); err != nil {
		logger.Errorf("[main] redis init: %v", err)
		os.Exit(1)
	}
	defer func() { _ = storageredis.Close() }()
	presence := storage.NewPresenceStore(storageredis.Get())

	// Postgres: message persistence
	pool, err := pgxpool.New(ctx, conf.PostgresURL)
	if err != nil {
		logger.Errorf("[main] postgres connect: %v", err)
		os.Exit(1)
	}
	defer pool.Close()
	messages := msgservice.NewService(pool)
	if err := messages.EnsureSchema(ctx); err != nil {
		logger.Errorf("[main] ensure schema: %v", err)
		os.Exit(1)
	}

	jwtOpts := security.DefaultOptions([]byte(conf.JWTSecret))
	jwtOpts.TTL = conf.JWTTTL

	srv := chat.NewServer(chat.Options{
		GatewayID:     conf.GatewayID,
		SendQueueSize: conf.SendQueueSize,
		FanoutWorkers: conf.FanoutWorkers,
		FanoutQueue:   conf.FanoutQueue,
		ReadLimit:     int64(conf.ReadLimitBytes),
	}, presence, chat.NewJWTVerifier(jwtOpts))

	srv.RegisterHandlers(
		handlers.NewMessageHandler(messages, srv),
		handlers.NewTypingHandler(presence, srv),
		handlers.NewPresenceHandler(presence),
	)

	// Mongo: optional session audit log
	if conf.MongoURI != "" {
		mc, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.MongoURI))
		if err != nil {
			logger.Errorf("[main] mongo connect: %v", err)
			os.Exit(1)
		}
		defer func() { _ = mc.Disconnect(context.Background()) }()
		srv.WithSessionLog(userservice.NewSessionLog(mc.Database(conf.MongoDB)))
	}

	// NATS: optional cross-gateway broadcast relay
	if conf.NatsURL != "" {
		relay, err := natsx.NewRelay(conf.NatsURL, conf.GatewayID)
		if err != nil {
			logger.Errorf("[main] nats connect: %v", err)
			os.Exit(1)
		}
		defer relay.Close()
		if err := relay.Subscribe(srv.DeliverLocal); err != nil {
			logger.Errorf("[main] relay subscribe: %v", err)
			os.Exit(1)
		}
		srv.WithRelay(relay)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ws", srv.HandleWS)
	message.RegisterRoutes(r, messages, presence, jwtOpts)

	httpSrv := &http.Server{Addr: conf.ListenAddr, Handler: r}
	go func() {
		logger.Infof("[main] gateway %s listening on %s", conf.GatewayID, conf.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("[main] http serve: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("[main] shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	srv.Close()
}
