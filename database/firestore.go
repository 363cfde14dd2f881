package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// NewFirestoreClient connects to Firestore for the given project. When
// FIRESTORE_EMULATOR_HOST is set the client talks to the emulator without
// credentials.
func NewFirestoreClient(ctx context.Context, projectID string, logger *slog.Logger) (*firestore.Client, error) {
	if host := os.Getenv("FIRESTORE_EMULATOR_HOST"); host != "" {
		client, err := firestore.NewClient(ctx, projectID, option.WithoutAuthentication())
		if err != nil {
			return nil, fmt.Errorf("connect to firestore emulator: %w", err)
		}
		logger.Info("connected to Firestore emulator", slog.String("host", host))
		return client, nil
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("connect to firestore: %w", err)
	}
	logger.Info("connected to Firestore", slog.String("project_id", projectID))
	return client, nil
}
