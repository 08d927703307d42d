package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"training/internal/attendance"
	"training/internal/config"
	"training/internal/mailer"
	"training/internal/mailing"
	"training/internal/queue"
	"training/internal/store"
)

// Worker consumes queue messages and delivers campaign mail to attendees.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "training:campaigns")
	}

	mailingSvc := mailing.NewService(mailing.NewRepository(db.Client), attendance.NewService(attendance.NewRepository(db.Client)))
	smtp := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "campaign" {
			continue
		}

		id := string(msg.Body)
		log.Printf("processing campaign %s", id)

		campaign, err := mailingSvc.Get(ctx, id)
		if err != nil {
			log.Printf("fetch campaign %s failed: %v", id, err)
			continue
		}

		recipients, err := mailingSvc.Recipients(ctx, id)
		if err != nil {
			log.Printf("fetch recipients for %s failed: %v", id, err)
			continue
		}
		if len(recipients) == 0 {
			log.Printf("campaign %s has no recipients", id)
			continue
		}

		if err := smtp.Send(recipients, campaign.Subject, campaign.Body); err != nil {
			log.Printf("send campaign %s failed: %v", id, err)
			continue
		}

		log.Printf("campaign %s delivered to %d recipients", id, len(recipients))
		time.Sleep(10 * time.Millisecond) // Small delay between campaigns
	}

	log.Println("worker stopped")
}
