package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/config"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
	"github.com/oksasatya/competitor-radar/pkg/mailer"
)

const sendTimeout = 15 * time.Second

type disposition int

const (
	ack disposition = iota
	drop
	retry
)

// handle renders and sends one queued job. A failed send is retried once
// through the broker; malformed jobs are dropped.
func handle(ctx context.Context, t mailer.Transport, body []byte, redelivered bool, logger *logrus.Logger) disposition {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		helpers.LogError(logger, "bad email job", err, nil)
		return drop
	}
	if err := job.Validate(); err != nil {
		helpers.LogError(logger, "bad email job", err, logrus.Fields{"template": job.Template})
		return drop
	}

	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := mailer.Deliver(c, t, job); err != nil {
		helpers.LogError(logger, "email delivery failed", err, logrus.Fields{
			"to":          job.To,
			"template":    job.Template,
			"redelivered": redelivered,
		})
		if redelivered {
			return drop
		}
		return retry
	}
	helpers.LogInfo(logger, "email sent", logrus.Fields{"to": job.To, "template": job.Template})
	return ack
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQEmailQueue, true, false, false, false, nil); err != nil {
		logger.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			switch handle(ctx, mg, msg.Body, msg.Redelivered, logger) {
			case ack:
				_ = msg.Ack(false)
			case retry:
				_ = msg.Nack(false, true)
			default:
				_ = msg.Nack(false, false)
			}
		}
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	<-ctx.Done()
	logger.Info("shutting down...")
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}
