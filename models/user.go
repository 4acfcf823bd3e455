package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"` // bcrypt hash
	SavedBooks []SavedBook        `bson:"savedBooks" json:"savedBooks"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// BookCount is the number of entries in the user's saved list.
func (u *User) BookCount() int {
	return len(u.SavedBooks)
}

// Identity is the subset of a User carried inside an auth token. A request
// without one is anonymous.
type Identity struct {
	ID       primitive.ObjectID
	Email    string
	Username string
}
