// Package mongodb implements the repository interfaces on top of MongoDB.
//
// It mirrors the shape of repository/sqlite: one *Store owns the client and
// hands out a user and a content repository over two collections.
//
// FOLLOW SETS:
// A user's follow set is a plain array field. $addToSet and $pull give "add if
// absent" and "remove if present" in one round trip, and ModifiedCount tells us
// whether anything changed.
//
// IDS:
// Documents use ObjectID _ids; the API sees their 24-char hex form. An id that
// isn't valid hex can never match a document, so lookups treat it as NotFound.
package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sakif/social-network/internal/repository"
)

const (
	usersCollection   = "users"
	contentCollection = "content"
)

// Store wraps a connected client and the two repositories.
type Store struct {
	client   *mongo.Client
	users    *UserCollection
	contents *ContentCollection
}

// Connect dials uri, verifies the primary is reachable and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connecting: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: pinging: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		users:    &UserCollection{coll: db.Collection(usersCollection)},
		contents: &ContentCollection{coll: db.Collection(contentCollection)},
	}

	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// ensureIndexes creates lookup indexes. None of them is unique: registration
// checks for duplicates before inserting, and that check is the only guard.
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating user indexes: %w", err)
	}

	_, err = s.contents.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating content indexes: %w", err)
	}
	return nil
}

func (s *Store) Users() *UserCollection { return s.users }

func (s *Store) Contents() *ContentCollection { return s.contents }

// Ping checks the primary is reachable. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// substring builds a case-insensitive regex that matches query literally.
func substring(query string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
}

// findOptions applies pagination and sort to a Find.
func findOptions(sort bson.D, opts repository.ListOptions) *options.FindOptions {
	fo := options.Find().SetSort(sort)
	if opts.Offset > 0 {
		fo.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		fo.SetLimit(int64(opts.Limit))
	}
	return fo
}

// now returns the current time at the precision BSON dates keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
