package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/config"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/insight"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
	"github.com/oksasatya/competitor-radar/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons. Every getter may
// return nil; modules degrade to in-memory or disabled variants.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client

	mailgunClient *mailer.Mailgun
	rabbitPub     *helpers.RabbitPublisher
	esClient      *elasticsearch.Client

	completer insight.Completer
	registry  *prometheus.Registry
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config {
	if cfg == nil {
		return config.Load()
	}
	return cfg
}
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
func SetPGPool(p *pgxpool.Pool) { pgPool = p }
func GetPGPool() *pgxpool.Pool  { return pgPool }
func SetRedis(r *redis.Client)  { redisClient = r }
func GetRedis() *redis.Client   { return redisClient }
func SetGCS(s *storage.Client)  { gcsClient = s }
func GetGCS() *storage.Client   { return gcsClient }

func SetMailgun(m *mailer.Mailgun)            { mailgunClient = m }
func GetMailgun() *mailer.Mailgun             { return mailgunClient }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

func SetCompleter(c insight.Completer) { completer = c }
func GetCompleter() insight.Completer  { return completer }

// SetRegistry installs the Prometheus registry metrics are recorded into.
func SetRegistry(r *prometheus.Registry) { registry = r }
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return registry
}
