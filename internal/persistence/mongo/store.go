// Package mongo implements domain.Store on MongoDB, keeping each user's log
// embedded in the user document.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/exercisetracker/internal/domain"
)

// UsersCollection is the collection holding user documents.
const UsersCollection = "users"

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Exercises []exerciseDocument `bson:"exercises"`
}

type exerciseDocument struct {
	Description string    `bson:"description"`
	Duration    int       `bson:"duration"`
	Date        time.Time `bson:"date"`
}

// Store persists users in a MongoDB collection.
type Store struct {
	users *mongo.Collection
}

// NewStore constructs a Store over db.
func NewStore(db *mongo.Database) *Store {
	return &Store{users: db.Collection(UsersCollection)}
}

// CreateUser implements domain.Store.
func (s *Store) CreateUser(ctx context.Context, username string) (*domain.User, error) {
	doc := userDocument{Username: username, Exercises: []exerciseDocument{}}
	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.toDomain(), nil
}

// ListUsers returns users in insertion order.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	cursor, err := s.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		out = append(out, *doc.toDomain())
	}
	return out, nil
}

// FindUser implements domain.Store. Malformed ids are reported as not found.
func (s *Store) FindUser(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	var doc userDocument
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// AppendExercise pushes rec onto the embedded exercises array and returns the
// document as it stands after the update.
func (s *Store) AppendExercise(ctx context.Context, id string, rec domain.ExerciseRecord) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	update := bson.M{"$push": bson.M{"exercises": exerciseDocument{
		Description: rec.Description,
		Duration:    rec.DurationMin,
		Date:        rec.Date,
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (d userDocument) toDomain() *domain.User {
	user := &domain.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Exercises: make([]domain.ExerciseRecord, 0, len(d.Exercises)),
	}
	for _, ex := range d.Exercises {
		user.Exercises = append(user.Exercises, domain.ExerciseRecord{
			Description: ex.Description,
			DurationMin: ex.Duration,
			Date:        domain.CalendarDate(ex.Date.UTC()),
		})
	}
	return user
}
