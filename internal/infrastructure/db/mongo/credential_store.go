package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
	"github.com/inventory-system/inventory-web/internal/pkg/sealer"
)

const credentialCollection = "session_credentials"

// CredentialStore keeps sealed session credentials in MongoDB. Expired
// documents are removed by a TTL index on expires_at.
type CredentialStore struct {
	coll   *mongo.Collection
	sealer *sealer.Sealer
	now    func() time.Time
}

func NewCredentialStore(db *mongo.Database, s *sealer.Sealer) *CredentialStore {
	return &CredentialStore{coll: db.Collection(credentialCollection), sealer: s, now: time.Now}
}

type credentialDoc struct {
	SessionID string    `bson:"_id"`
	Sealed    []byte    `bson:"sealed"`
	ExpiresAt time.Time `bson:"expires_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// EnsureIndexes creates the TTL index. Safe to call on every start.
func (s *CredentialStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
	})
	if err != nil {
		return fmt.Errorf("create credential ttl index: %w", err)
	}
	return nil
}

func (s *CredentialStore) Load(ctx context.Context, sessionID string) (domain.Credential, error) {
	var doc credentialDoc
	filter := bson.M{"_id": sessionID, "expires_at": bson.M{"$gt": s.now().UTC()}}
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Credential{}, ports.ErrNoCredential
		}
		return domain.Credential{}, fmt.Errorf("find credential: %w", err)
	}
	cred, err := s.sealer.Open(sessionID, doc.Sealed)
	if err != nil {
		_ = s.Delete(ctx, sessionID)
		return domain.Credential{}, ports.ErrNoCredential
	}
	return cred, nil
}

func (s *CredentialStore) Save(ctx context.Context, sessionID string, cred domain.Credential, ttl time.Duration) error {
	sealed, err := s.sealer.Seal(sessionID, cred)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	doc := credentialDoc{
		SessionID: sessionID,
		Sealed:    sealed,
		ExpiresAt: now.Add(ttl),
		UpdatedAt: now,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": sessionID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
