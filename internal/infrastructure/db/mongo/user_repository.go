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

	"github.com/coursehub/coursehub-api/internal/core/domain"
	"github.com/coursehub/coursehub-api/internal/core/ports"
)

const collectionUsers = "users"

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

type mongoEnrolledCourse struct {
	CourseID   string    `bson:"course_id"`
	CourseName string    `bson:"course_name"`
	EnrolledAt time.Time `bson:"enrolled_at"`
}

type mongoProfile struct {
	Bio         string     `bson:"bio,omitempty"`
	Phone       string     `bson:"phone,omitempty"`
	Address     string     `bson:"address,omitempty"`
	DateOfBirth *time.Time `bson:"date_of_birth,omitempty"`
}

type mongoUser struct {
	ID              primitive.ObjectID    `bson:"_id,omitempty"`
	Username        string                `bson:"username"`
	Email           string                `bson:"email"`
	PasswordHash    string                `bson:"password_hash"`
	FirstName       string                `bson:"first_name"`
	LastName        string                `bson:"last_name"`
	Role            string                `bson:"role"`
	EnrolledCourses []mongoEnrolledCourse `bson:"enrolled_courses"`
	Profile         mongoProfile          `bson:"profile"`
	IsActive        bool                  `bson:"is_active"`
	LastLogin       time.Time             `bson:"last_login"`
	CreatedAt       time.Time             `bson:"created_at"`
	UpdatedAt       time.Time             `bson:"updated_at"`
}

func (mu *mongoUser) toDomain() *domain.User {
	enrolled := make([]domain.EnrolledCourse, len(mu.EnrolledCourses))
	for i, ec := range mu.EnrolledCourses {
		enrolled[i] = domain.EnrolledCourse{
			CourseID:   ec.CourseID,
			CourseName: ec.CourseName,
			EnrolledAt: ec.EnrolledAt.UTC(),
		}
	}
	return &domain.User{
		ID:              mu.ID.Hex(),
		Username:        mu.Username,
		Email:           mu.Email,
		PasswordHash:    mu.PasswordHash,
		FirstName:       mu.FirstName,
		LastName:        mu.LastName,
		Role:            domain.Role(mu.Role),
		EnrolledCourses: enrolled,
		Profile: domain.Profile{
			Bio:         mu.Profile.Bio,
			Phone:       mu.Profile.Phone,
			Address:     mu.Profile.Address,
			DateOfBirth: mu.Profile.DateOfBirth,
		},
		IsActive:  mu.IsActive,
		LastLogin: mu.LastLogin.UTC(),
		CreatedAt: mu.CreatedAt.UTC(),
		UpdatedAt: mu.UpdatedAt.UTC(),
	}
}

// Create inserts a user. The unique indexes on username and email turn a
// concurrent duplicate into domain.ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		Username:        user.Username,
		Email:           user.Email,
		PasswordHash:    user.PasswordHash,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Role:            string(user.Role),
		EnrolledCourses: []mongoEnrolledCourse{},
		Profile: mongoProfile{
			Bio:         user.Profile.Bio,
			Phone:       user.Profile.Phone,
			Address:     user.Profile.Address,
			DateOfBirth: user.Profile.DateOfBirth,
		},
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

// UpdateProfile sets the non-nil fields of update and returns the new state.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update ports.ProfileUpdate) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if update.FirstName != nil {
		set["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		set["last_name"] = *update.LastName
	}
	if update.Bio != nil {
		set["profile.bio"] = *update.Bio
	}
	if update.Phone != nil {
		set["profile.phone"] = *update.Phone
	}
	if update.Address != nil {
		set["profile.address"] = *update.Address
	}
	if update.DateOfBirth != nil {
		set["profile.date_of_birth"] = update.DateOfBirth.UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mu mongoUser
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, ts time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"last_login": ts.UTC()}})
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// AppendEnrollment is a single conditional update: the filter only matches
// while no entry for the course exists, so two racing calls cannot both push.
func (r *UserRepository) AppendEnrollment(ctx context.Context, userID string, entry domain.EnrolledCourse) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":                        oid,
		"enrolled_courses.course_id": bson.M{"$ne": entry.CourseID},
	}
	update := bson.M{
		"$push": bson.M{"enrolled_courses": mongoEnrolledCourse{
			CourseID:   entry.CourseID,
			CourseName: entry.CourseName,
			EnrolledAt: entry.EnrolledAt.UTC(),
		}},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("append enrollment: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *UserRepository) ForEachEnrollment(ctx context.Context, fn func(userID string, entry domain.EnrolledCourse) error) error {
	opts := options.Find().SetProjection(bson.M{"enrolled_courses": 1})
	cur, err := r.coll.Find(ctx, bson.M{"enrolled_courses.0": bson.M{"$exists": true}}, opts)
	if err != nil {
		return fmt.Errorf("scan users: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return fmt.Errorf("decode user: %w", err)
		}
		for _, ec := range mu.EnrolledCourses {
			if err := fn(mu.ID.Hex(), domain.EnrolledCourse{
				CourseID:   ec.CourseID,
				CourseName: ec.CourseName,
				EnrolledAt: ec.EnrolledAt.UTC(),
			}); err != nil {
				return err
			}
		}
	}
	return cur.Err()
}

// EnsureIndexes creates the unique indexes that back username/email uniqueness.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "enrolled_courses.course_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
