package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gophercalc/internal/config"
	"gophercalc/internal/model"
	"gophercalc/internal/observability"
	mysqlClient "gophercalc/internal/platform/mysql"
	rabbitmqClient "gophercalc/internal/platform/rabbitmq"
	redisClient "gophercalc/internal/platform/redis"
	"gophercalc/internal/repository"
	"gophercalc/internal/worker"
)

type App struct {
	Config       *config.Config
	Logger       *logrus.Logger
	Metrics      *observability.Metrics
	MySQL        *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	AuditWorker  *worker.AuthEventWorker
	AuditSweeper *worker.AuditSweeper

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger := newLogger(cfg.Log)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.User{}, &model.Calculation{}, &model.AuthEvent{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.AuthEventQueue)
	if err != nil {
		return nil, err
	}

	eventRepo := repository.NewAuthEventRepository(mysqlDB)
	auditWorker := worker.NewAuthEventWorker(mqConn, eventRepo, cfg.RabbitMQ.AuthEventQueue, logger)
	if err := auditWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start audit worker failed: %w", err)
	}

	auditSweeper := worker.NewAuditSweeper(eventRepo, logger, cfg.Audit)
	if err := auditSweeper.Start(); err != nil {
		return nil, fmt.Errorf("start audit sweeper failed: %w", err)
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		MySQL:        mysqlDB,
		Redis:        redisCli,
		MQConn:       mqConn,
		AuditWorker:  auditWorker,
		AuditSweeper: auditSweeper,
		StartedAt:    time.Now(),
	}, nil
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func (a *App) Close() error {
	var closeErr error
	if a.AuditSweeper != nil {
		a.AuditSweeper.Close()
	}
	if a.AuditWorker != nil {
		a.AuditWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
