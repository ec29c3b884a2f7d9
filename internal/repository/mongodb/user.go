package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

var _ repository.UserRepository = (*UserCollection)(nil)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	FullName  string             `bson:"fullName"`
	Follows   []string           `bson:"follows"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *userDoc) toModel() *model.User {
	follows := d.Follows
	if follows == nil {
		follows = []string{}
	}
	return &model.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		FullName:  d.FullName,
		Follows:   follows,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// UserCollection stores users, follow sets included, in one collection.
type UserCollection struct {
	coll *mongo.Collection
}

func (u *UserCollection) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}
	if user.Follows == nil {
		user.Follows = []string{}
	}

	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.Password,
		FullName:  user.FullName,
		Follows:   user.Follows,
		CreatedAt: user.CreatedAt,
	}
	if _, err := u.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongodb: inserting user %q: %w", user.Username, err)
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (u *UserCollection) GetByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("user", id)
	}
	user, err := u.findOne(ctx, bson.M{"_id": oid})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: getting user %s: %w", id, err)
	}
	return user, nil
}

func (u *UserCollection) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := u.findOne(ctx, bson.M{"username": username})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFoundBy("user", "username", username)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: getting user by username %q: %w", username, err)
	}
	return user, nil
}

func (u *UserCollection) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := u.findOne(ctx, bson.M{"email": email})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFoundBy("user", "email", email)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: getting user by email: %w", err)
	}
	return user, nil
}

func (u *UserCollection) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	user, err := u.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFoundBy("user", "username", username)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: finding user by email or username: %w", err)
	}
	return user, nil
}

func (u *UserCollection) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	return u.findMany(ctx, bson.M{}, opts)
}

// Search matches username or fullName with a case-insensitive regex built
// from the quoted query, so it is a literal substring match.
func (u *UserCollection) Search(ctx context.Context, query string, opts repository.ListOptions) ([]model.User, error) {
	re := substring(query)
	return u.findMany(ctx, bson.M{"$or": bson.A{
		bson.M{"username": re},
		bson.M{"fullName": re},
	}}, opts)
}

func (u *UserCollection) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("user", id)
	}
	result, err := u.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongodb: deleting user %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func (u *UserCollection) AddFollow(ctx context.Context, userID, username string) (bool, error) {
	return u.updateFollows(ctx, userID, bson.M{"$addToSet": bson.M{"follows": username}})
}

func (u *UserCollection) RemoveFollow(ctx context.Context, userID, username string) (bool, error) {
	return u.updateFollows(ctx, userID, bson.M{"$pull": bson.M{"follows": username}})
}

func (u *UserCollection) updateFollows(ctx context.Context, userID string, update bson.M) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil
	}
	result, err := u.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return false, fmt.Errorf("mongodb: updating follows for %s: %w", userID, err)
	}
	return result.ModifiedCount > 0, nil
}

func (u *UserCollection) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if err := u.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (u *UserCollection) findMany(ctx context.Context, filter bson.M, opts repository.ListOptions) ([]model.User, error) {
	sort := bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	cursor, err := u.coll.Find(ctx, filter, findOptions(sort, opts))
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing users: %w", err)
	}

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb: decoding users: %w", err)
	}

	users := make([]model.User, 0, len(docs))
	for i := range docs {
		users = append(users, *docs[i].toModel())
	}
	return users, nil
}
