package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/leathershop/internal/email"
	"github.com/example/leathershop/internal/events"
	"github.com/example/leathershop/internal/notification"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Configuration from environment variables
	kafkaBrokersStr := getEnv("KAFKA_BROKERS", "localhost:9092")
	kafkaBrokers := strings.Split(kafkaBrokersStr, ",")
	kafkaTopic := getEnv("KAFKA_TOPIC", "shop-events")
	consumerGroup := "email-notifier" // Dedicated consumer group for confirmation emails

	sendgridKey := os.Getenv("SENDGRID_API_KEY")
	fromName := getEnv("EMAIL_FROM_NAME", "Kt'i")
	fromEmail := getEnv("EMAIL_FROM", "noreply@example.com")
	adminEmail := getEnv("EMAIL_ADMIN", "owner@example.com")

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Kt'i - Email Notification Service")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v", kafkaBrokers)
	log.Printf("[Notifier] Topic: %s", kafkaTopic)
	log.Printf("[Notifier] Group: %s", consumerGroup)
	log.Printf("[Notifier] From: %s", fromEmail)
	if sendgridKey == "" {
		log.Println("[Notifier] Warning: SENDGRID_API_KEY not set, sends will fail")
	}

	emailSvc := email.NewService(sendgridKey, fromName, fromEmail, adminEmail)
	handler := notification.NewHandler(emailSvc)

	consumer := events.NewConsumer(kafkaBrokers, kafkaTopic, consumerGroup)
	defer consumer.Close()

	go func() {
		log.Println("[Notifier] Starting event consumer...")
		log.Printf("[Notifier] Listening to topic: %s", kafkaTopic)
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil {
			log.Printf("[Notifier] Consumer error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notifier] Shutting down...")
	cancel()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
