package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticketpay/config"
	"ticketpay/internal"
	"ticketpay/services"
)

func main() {

	logger := internal.NewLogger("internal", false, nil)

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	logger.Info("using config file: " + *configPath)
	conf, err := config.GetConfig(*configPath)
	if err != nil {
		logger.Error("boot", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var database services.Database = internal.NewMemoryDB()
	if conf.Mongo.Enabled {
		mongo, err := internal.NewMongoClient(ctx, conf)
		if err != nil {
			logger.Error("mongo client", err)
			os.Exit(1)
		}
		defer func() {
			_ = mongo.Close(context.Background())
		}()
		database = mongo
		logger.Info("mongo client initialized")
	} else {
		logger.Warn("mongo disabled, orders are kept in memory")
	}

	payments, err := internal.NewPayments(conf, services.SystemClock{})
	if err != nil {
		logger.Error("payments service", err)
		os.Exit(1)
	}
	payments.SetLogger(internal.NewLogger("payments", conf.IsDebug, database))
	payments.SetDatabase(database)

	if conf.Redis.Enabled {
		client, err := internal.NewRedisClient(ctx, conf)
		if err != nil {
			logger.Error("redis client", err)
			os.Exit(1)
		}
		defer func() {
			_ = client.Close()
		}()
		payments.SetLocker(internal.NewRedisLocker(client, conf, internal.NewLogger("locker", conf.IsDebug, database)))
		logger.Info("redis locker initialized")
	}

	if conf.Kafka.Enabled {
		publisher := internal.NewKafkaPublisher(conf)
		defer func() {
			_ = publisher.Close()
		}()
		payments.SetPublisher(publisher)
		logger.Info("kafka publisher initialized")
	}

	if conf.ExpiryJob.Enabled {
		job := internal.NewExpiryJob(payments,
			time.Duration(conf.ExpiryJob.IntervalSeconds)*time.Second,
			conf.ExpiryJob.BatchSize,
			internal.NewLogger("expiry", conf.IsDebug, database))
		go job.Run(ctx)
	}

	server, err := internal.NewServer(conf)
	if err != nil {
		logger.Error("server", err)
		os.Exit(1)
	}
	server.SetLogger(internal.NewLogger("server", conf.IsDebug, database))
	server.SetPaymentsService(payments)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", err)
		}
	}()

	err = server.Start()
	if err != nil {
		logger.Error("server start", err)
		return
	}

}
