package store

import (
	"context"
	"errors"

	"github.com/kevinaaaquil/bookshelf/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.findUser(ctx, bson.M{"email": email})
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return db.findUser(ctx, bson.M{"_id": id})
}

func (db *DB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts user and returns it with its new ID. The password field must
// already hold a hash.
func (db *DB) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user.SavedBooks == nil {
		// $push fails on a null field, so the list always starts as an empty array.
		user.SavedBooks = []models.SavedBook{}
	}
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}
	created := *user
	created.ID = res.InsertedID.(primitive.ObjectID)
	return &created, nil
}

// AddSavedBook appends book to the user's list in one atomic update. The filter only
// matches while no entry with the same bookId exists, so a repeated save leaves the
// list as it is and the current document is returned.
func (db *DB) AddSavedBook(ctx context.Context, userID primitive.ObjectID, book models.SavedBook) (*models.User, error) {
	if book.Authors == nil {
		book.Authors = []string{}
	}
	filter := bson.M{
		"_id":               userID,
		"savedBooks.bookId": bson.M{"$ne": book.BookID},
	}
	update := bson.M{"$push": bson.M{"savedBooks": book}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	err := db.Users().FindOneAndUpdate(ctx, filter, update, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return db.UserByID(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RemoveSavedBook pulls every entry with bookID from the user's list. Removing an
// absent bookId leaves the list unchanged.
func (db *DB) RemoveSavedBook(ctx context.Context, userID primitive.ObjectID, bookID string) (*models.User, error) {
	update := bson.M{"$pull": bson.M{"savedBooks": bson.M{"bookId": bookID}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	err := db.Users().FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
