package mailer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const emailQueue = "auth.email"

// EmailJob is the message a delivery worker consumes from the auth.email
// queue.
type EmailJob struct {
	To       string    `json:"to"`
	Template string    `json:"template"` // email_verification | password_reset
	Token    string    `json:"token"`
	QueuedAt time.Time `json:"queued_at"`
}

// AMQPMailer enqueues email jobs on RabbitMQ. The connection is dialed per
// publish; volume is a handful of messages per login/join, not a hot path.
type AMQPMailer struct {
	url string
}

func NewAMQPMailer(url string) *AMQPMailer {
	return &AMQPMailer{url: url}
}

func (m *AMQPMailer) SendEmailVerification(ctx context.Context, email, token string) error {
	return m.publish(ctx, EmailJob{To: email, Template: "email_verification", Token: token, QueuedAt: time.Now().UTC()})
}

func (m *AMQPMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	return m.publish(ctx, EmailJob{To: email, Template: "password_reset", Token: token, QueuedAt: time.Now().UTC()})
}

func (m *AMQPMailer) publish(ctx context.Context, job EmailJob) error {
	conn, err := amqp.Dial(m.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so jobs survive broker restarts.
	if _, err := ch.QueueDeclare(emailQueue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    job.QueuedAt,
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", emailQueue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
