package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/bookshelf/models"
)

// ObjectStore is implemented by S3Service.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration, filename string) (string, error)
}

const exportFilename = "saved-books.json"

type Export struct {
	URL       string
	ExpiresAt time.Time
}

type exportDocument struct {
	Username   string             `json:"username"`
	Email      string             `json:"email"`
	ExportedAt time.Time          `json:"exportedAt"`
	Books      []models.SavedBook `json:"books"`
}

// Exporter writes a user's saved list to object storage as JSON and hands back a
// short-lived download link.
type Exporter struct {
	objects ObjectStore
	users   UserStore
	urlTTL  time.Duration
	now     func() time.Time
}

// NewExporter returns an exporter. A nil objects store disables exports.
func NewExporter(objects ObjectStore, users UserStore, urlTTL time.Duration) *Exporter {
	return &Exporter{objects: objects, users: users, urlTTL: urlTTL, now: time.Now}
}

func (e *Exporter) ExportSavedBooks(ctx context.Context, who *models.Identity) (*Export, error) {
	if e.objects == nil {
		return nil, ErrExportDisabled
	}
	user, err := e.users.UserByID(ctx, who.ID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		// The account was deleted after the token was issued.
		return nil, NewAuthenticationError(MsgPleaseLogin)
	}

	now := e.now().UTC()
	doc := exportDocument{
		Username:   user.Username,
		Email:      user.Email,
		ExportedAt: now,
		Books:      user.SavedBooks,
	}
	if doc.Books == nil {
		doc.Books = []models.SavedBook{}
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	key := exportKey(user.ID.Hex())
	if err := e.objects.Put(ctx, key, body, "application/json"); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	url, err := e.objects.PresignGet(ctx, key, e.urlTTL, exportFilename)
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}
	return &Export{URL: url, ExpiresAt: now.Add(e.urlTTL)}, nil
}

// exportKey is unique per export so earlier links keep pointing at their own snapshot.
func exportKey(userID string) string {
	return "exports/" + userID + "/" + uuid.NewString() + ".json"
}
