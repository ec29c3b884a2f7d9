package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

var _ repository.ContentRepository = (*ContentCollection)(nil)

type contentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Username  string             `bson:"username"`
	Title     string             `bson:"title"`
	Body      string             `bson:"body"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *contentDoc) toModel() model.Content {
	return model.Content{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Username:  d.Username,
		Title:     d.Title,
		Body:      d.Body,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// newestFirst is the order every content listing uses. ObjectIDs grow with
// insertion, so _id breaks createdAt ties.
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type ContentCollection struct {
	coll *mongo.Collection
}

func (c *ContentCollection) Create(ctx context.Context, content *model.Content) error {
	if content.CreatedAt.IsZero() {
		content.CreatedAt = now()
	}

	doc := contentDoc{
		ID:        primitive.NewObjectID(),
		UserID:    content.UserID,
		Username:  content.Username,
		Title:     content.Title,
		Body:      content.Body,
		CreatedAt: content.CreatedAt,
	}
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongodb: inserting content: %w", err)
	}
	content.ID = doc.ID.Hex()
	return nil
}

func (c *ContentCollection) GetByID(ctx context.Context, id string) (*model.Content, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("content", id)
	}

	var doc contentDoc
	err = c.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("content", id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: getting content %s: %w", id, err)
	}
	item := doc.toModel()
	return &item, nil
}

func (c *ContentCollection) List(ctx context.Context, opts repository.ListOptions) ([]model.Content, error) {
	return c.findMany(ctx, bson.M{}, opts)
}

func (c *ContentCollection) Search(ctx context.Context, query string, opts repository.ListOptions) ([]model.Content, error) {
	re := substring(query)
	return c.findMany(ctx, bson.M{"$or": bson.A{
		bson.M{"title": re},
		bson.M{"body": re},
	}}, opts)
}

// ListByAuthors is the feed query: {username: {$in: usernames}} newest first.
func (c *ContentCollection) ListByAuthors(ctx context.Context, usernames []string) ([]model.Content, error) {
	if len(usernames) == 0 {
		return []model.Content{}, nil
	}
	return c.findMany(ctx, bson.M{"username": bson.M{"$in": usernames}}, repository.ListOptions{})
}

func (c *ContentCollection) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("content", id)
	}
	result, err := c.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongodb: deleting content %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return apperror.NotFound("content", id)
	}
	return nil
}

func (c *ContentCollection) findMany(ctx context.Context, filter bson.M, opts repository.ListOptions) ([]model.Content, error) {
	cursor, err := c.coll.Find(ctx, filter, findOptions(newestFirst, opts))
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing content: %w", err)
	}

	var docs []contentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb: decoding content: %w", err)
	}

	items := make([]model.Content, 0, len(docs))
	for i := range docs {
		items = append(items, docs[i].toModel())
	}
	return items, nil
}
