/**
 * @description
 * This file implements the Repository on MongoDB. Each record kind lives in its
 * own collection and the subscribers collection carries a unique index on
 * email, which is how duplicate subscriptions are detected.
 *
 * @dependencies
 * - go.mongodb.org/mongo-driver: The official MongoDB driver.
 */

package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rajagurusk/mindron-backend/internal/domain"
)

const (
	subscribersCollection = "subscribers"
	contactsCollection    = "contacts"
	helpdesksCollection   = "helpdesks"
	donationsCollection   = "donations"
)

// MongoRepository writes records to a MongoDB database.
type MongoRepository struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// ConnectMongo dials MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoRepository, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return NewMongoRepository(client, database), nil
}

// NewMongoRepository creates a repository on an existing client.
func NewMongoRepository(client *mongo.Client, database string) *MongoRepository {
	return &MongoRepository{
		client: client,
		db:     client.Database(database),
		now:    time.Now,
	}
}

// EnsureIndexes creates the unique index on subscriber email.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(subscribersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create subscriber email index: %w", err)
	}
	return nil
}

func (r *MongoRepository) CreateSubscriber(ctx context.Context, s *domain.Subscriber) error {
	if err := validate(domain.KindSubscriber, s); err != nil {
		return err
	}
	if s.SubscribedAt.IsZero() {
		s.SubscribedAt = r.now()
	}
	id, err := r.insert(ctx, subscribersCollection, s)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func (r *MongoRepository) CreateContact(ctx context.Context, c *domain.Contact) error {
	if err := validate(domain.KindContact, c); err != nil {
		return err
	}
	if c.SentAt.IsZero() {
		c.SentAt = r.now()
	}
	id, err := r.insert(ctx, contactsCollection, c)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *MongoRepository) CreateHelpdesk(ctx context.Context, h *domain.Helpdesk) error {
	if err := validate(domain.KindHelpdesk, h); err != nil {
		return err
	}
	if h.SentAt.IsZero() {
		h.SentAt = r.now()
	}
	id, err := r.insert(ctx, helpdesksCollection, h)
	if err != nil {
		return err
	}
	h.ID = id
	return nil
}

func (r *MongoRepository) CreateDonation(ctx context.Context, d *domain.Donation) error {
	if err := validate(domain.KindDonation, d); err != nil {
		return err
	}
	if d.PaidAt.IsZero() {
		d.PaidAt = r.now()
	}
	id, err := r.insert(ctx, donationsCollection, d)
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

// insert stores doc and returns the hex form of the generated ObjectID.
func (r *MongoRepository) insert(ctx context.Context, collection string, doc any) (string, error) {
	res, err := r.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("insert into %s: %w", collection, ErrDuplicateKey)
		}
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
