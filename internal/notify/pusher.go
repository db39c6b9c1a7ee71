package notify

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Pusher delivers a notification to one device token.
type Pusher interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// FCM sends through Firebase Cloud Messaging.
type FCM struct {
	client *messaging.Client
}

// NewFCM initialises the Firebase app. An empty credentialsFile falls back to
// application default credentials.
func NewFCM(ctx context.Context, credentialsFile string) (*FCM, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging: %w", err)
	}
	return &FCM{client: client}, nil
}

func (f *FCM) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	_, err := f.client.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
		Android:      &messaging.AndroidConfig{Priority: "high"},
	})
	return err
}

// LogPusher only logs; used when Firebase is not configured.
type LogPusher struct{}

func (LogPusher) Send(_ context.Context, token, title, body string, _ map[string]string) error {
	log.Printf("push (log only) to %s: %s - %s", maskToken(token), title, body)
	return nil
}

func maskToken(t string) string {
	if len(t) <= 8 {
		return "****"
	}
	return t[:4] + "..." + t[len(t)-4:]
}
