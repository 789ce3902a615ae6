package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/storage"
	"google.golang.org/api/option"
)

// Client bundles the Firebase services the ledger uses: Firestore for
// documents, Storage for screenshots, Auth for principal resolution.
type Client struct {
	app       *firebase.App
	firestore *firestore.Client
	auth      *auth.Client
	storage   *storage.Client
	bucket    string
}

// NewClient initializes the Firebase app from a credentials file or an
// inline credentials JSON env var, matching how the service is
// deployed. Returns an error when neither is configured.
func NewClient(ctx context.Context, credPath, credJSON, bucket string) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case credPath != "":
		opts = append(opts, option.WithCredentialsFile(credPath))
	case credJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	case os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "":
		// Application default credentials, nothing extra to pass.
	default:
		return nil, fmt.Errorf("no firebase credentials configured")
	}

	cfg := &firebase.Config{StorageBucket: bucket}
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth client: %w", err)
	}
	storageClient, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	return &Client{
		app:       app,
		firestore: fs,
		auth:      authClient,
		storage:   storageClient,
		bucket:    bucket,
	}, nil
}

func (c *Client) Firestore() *firestore.Client { return c.firestore }

func (c *Client) Storage() *storage.Client { return c.storage }

func (c *Client) Bucket() string { return c.bucket }

// VerifyToken validates a Firebase ID token and returns the uid it was
// issued to.
func (c *Client) VerifyToken(ctx context.Context, idToken string) (string, error) {
	token, err := c.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("verify id token: %w", err)
	}
	return token.UID, nil
}

func (c *Client) Close() error {
	return c.firestore.Close()
}
