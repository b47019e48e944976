// Package mongostore implements store.Store on MongoDB.
//
// Ledger writes are single conditional UpdateOne calls filtered on the tour
// version, so concurrent mutations of one tour never overwrite each other.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/travelwallet/travelwallet/internal/model"
	"github.com/travelwallet/travelwallet/internal/store"
)

// Collection name constants.
const (
	colTours = "tours"
	colUsers = "users"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using the official MongoDB driver.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the connection and returns a store bound to database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}

	return New(client, database), nil
}

// New wraps an existing client.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

// Migrate creates indexes for all collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongostore: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ==================== Tour Store ====================

func (s *Store) CreateTour(ctx context.Context, tour *model.Tour) error {
	if err := store.ValidateID(tour.ID); err != nil {
		return err
	}

	if _, err := s.db.Collection(colTours).InsertOne(ctx, toTourModel(tour)); err != nil {
		return fmt.Errorf("mongostore: create tour: %w", err)
	}
	return nil
}

func (s *Store) GetTour(ctx context.Context, id string) (*model.Tour, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}

	var m tourModel
	err := s.db.Collection(colTours).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("mongostore: get tour: %w", err)
	}
	return fromTourModel(&m), nil
}

func (s *Store) ListToursByEmail(ctx context.Context, email string) ([]*model.Tour, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"organizer_by": email},
		bson.M{"friends": bson.M{"$elemMatch": bson.M{"email": email}}},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.db.Collection(colTours).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: list tours: %w", err)
	}

	var models []tourModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("mongostore: decode tours: %w", err)
	}

	tours := make([]*model.Tour, len(models))
	for i := range models {
		tours[i] = fromTourModel(&models[i])
	}
	return tours, nil
}

func (s *Store) UpdateTourDetails(ctx context.Context, id string, d model.TourDetails) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"organizer_id":   d.OrganizerID,
		"organizer_by":   d.OrganizerBy,
		"tour_name":      d.TourName,
		"description":    d.Description,
		"itinerary":      nonNil(d.Itinerary),
		"duration":       d.Duration,
		"meeting_point":  d.MeetingPoint,
		"transportation": d.Transportation,
		"cost":           d.Cost,
		"start_date":     d.StartDate,
		"end_date":       d.EndDate,
		"destination":    d.Destination,
		"updated_at":     now(),
	}}

	res, err := s.db.Collection(colTours).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mongostore: update tour: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTour(ctx context.Context, id string) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	res, err := s.db.Collection(colTours).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongostore: delete tour: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SaveFriends(ctx context.Context, id string, expectedVersion int64, friends []model.Friend) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{"friends": toFriendModels(friends), "updated_at": now()},
		"$inc": bson.M{"version": 1},
	}
	return s.conditionalUpdate(ctx, id, expectedVersion, update)
}

func (s *Store) AppendExpense(ctx context.Context, id string, expectedVersion int64, friends []model.Friend, expense model.Expense) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	update := bson.M{
		"$set":  bson.M{"friends": toFriendModels(friends), "updated_at": now()},
		"$push": bson.M{"expenses": toExpenseModel(expense)},
		"$inc":  bson.M{"version": 1},
	}
	return s.conditionalUpdate(ctx, id, expectedVersion, update)
}

// conditionalUpdate applies update only if the tour still has expectedVersion.
func (s *Store) conditionalUpdate(ctx context.Context, id string, expectedVersion int64, update bson.M) error {
	col := s.db.Collection(colTours)

	res, err := col.UpdateOne(ctx, bson.M{"_id": id, "version": expectedVersion}, update)
	if err != nil {
		return fmt.Errorf("mongostore: update ledger: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongostore: check tour existence: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrVersionConflict
}

// ==================== User Store ====================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if _, err := s.db.Collection(colUsers).InsertOne(ctx, toUserModel(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrEmailExists
		}
		return fmt.Errorf("mongostore: create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var m userModel
	err := s.db.Collection(colUsers).FindOne(ctx, bson.M{"email": email}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("mongostore: get user: %w", err)
	}
	return fromUserModel(&m), nil
}

func (s *Store) SearchUsersByName(ctx context.Context, query string) ([]*model.User, error) {
	if query == "" {
		return nil, nil
	}

	filter := bson.M{"user_name": bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}}
	opts := options.Find().
		SetSort(bson.D{{Key: "user_name", Value: 1}}).
		SetCollation(&options.Collation{Locale: "en", Strength: 2})

	cursor, err := s.db.Collection(colUsers).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: search users: %w", err)
	}

	var models []userModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("mongostore: decode users: %w", err)
	}

	users := make([]*model.User, len(models))
	for i := range models {
		users[i] = fromUserModel(&models[i])
	}
	return users, nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTours: {
			{Keys: bson.D{{Key: "organizer_by", Value: 1}}},
			{Keys: bson.D{{Key: "friends.email", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		colUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user_name", Value: 1}}},
		},
	}
}
