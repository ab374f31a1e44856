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
)

const collectionCourses = "courses"

type CourseRepository struct {
	col *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{col: db.Collection(collectionCourses)}
}

type mongoEnrolledStudent struct {
	UserID     string    `bson:"user_id"`
	EnrolledAt time.Time `bson:"enrolled_at"`
}

type mongoReview struct {
	UserID    string    `bson:"user_id"`
	Rating    float64   `bson:"rating"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"created_at"`
}

type mongoCourse struct {
	ID               primitive.ObjectID     `bson:"_id,omitempty"`
	Title            string                 `bson:"title"`
	Description      string                 `bson:"description"`
	Instructor       string                 `bson:"instructor"`
	Duration         string                 `bson:"duration"`
	Level            string                 `bson:"level"`
	Price            float64                `bson:"price"`
	Category         string                 `bson:"category"`
	Image            string                 `bson:"image"`
	EnrolledStudents []mongoEnrolledStudent `bson:"enrolled_students"`
	Rating           float64                `bson:"rating"`
	Reviews          []mongoReview          `bson:"reviews"`
	IsActive         bool                   `bson:"is_active"`
	CreatedAt        time.Time              `bson:"created_at"`
	UpdatedAt        time.Time              `bson:"updated_at"`
}

func (mc *mongoCourse) toDomain() *domain.Course {
	students := make([]domain.EnrolledStudent, len(mc.EnrolledStudents))
	for i, s := range mc.EnrolledStudents {
		students[i] = domain.EnrolledStudent{UserID: s.UserID, EnrolledAt: s.EnrolledAt.UTC()}
	}
	reviews := make([]domain.Review, len(mc.Reviews))
	for i, rv := range mc.Reviews {
		reviews[i] = domain.Review{
			UserID:    rv.UserID,
			Rating:    rv.Rating,
			Comment:   rv.Comment,
			CreatedAt: rv.CreatedAt.UTC(),
		}
	}
	return &domain.Course{
		ID:               mc.ID.Hex(),
		Title:            mc.Title,
		Description:      mc.Description,
		Instructor:       mc.Instructor,
		Duration:         mc.Duration,
		Level:            domain.Level(mc.Level),
		Price:            mc.Price,
		Category:         mc.Category,
		Image:            mc.Image,
		EnrolledStudents: students,
		Rating:           mc.Rating,
		Reviews:          reviews,
		IsActive:         mc.IsActive,
		CreatedAt:        mc.CreatedAt.UTC(),
		UpdatedAt:        mc.UpdatedAt.UTC(),
	}
}

// FindByID retrieves a course. Ids that are not valid ObjectIDs are
// reported as not found.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*domain.Course, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrCourseNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mc mongoCourse
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return mc.toDomain(), nil
}

func (r *CourseRepository) ListActive(ctx context.Context) ([]*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoCourse
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}

	courses := make([]*domain.Course, len(docs))
	for i := range docs {
		courses[i] = docs[i].toDomain()
	}
	return courses, nil
}

// Upsert writes the catalog fields keyed by title. Enrollment arrays are only
// initialised on insert.
func (r *CourseRepository) Upsert(ctx context.Context, c *domain.Course) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"description": c.Description,
			"instructor":  c.Instructor,
			"duration":    c.Duration,
			"level":       string(c.Level),
			"price":       c.Price,
			"category":    c.Category,
			"image":       c.Image,
			"rating":      c.Rating,
			"is_active":   c.IsActive,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"enrolled_students": bson.A{},
			"reviews":           bson.A{},
			"created_at":        now,
		},
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"title": c.Title}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("upsert course: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

// AddStudent mirrors UserRepository.AppendEnrollment on the course side.
func (r *CourseRepository) AddStudent(ctx context.Context, courseID string, student domain.EnrolledStudent) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(courseID)
	if err != nil {
		return false, domain.ErrCourseNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":                       oid,
		"enrolled_students.user_id": bson.M{"$ne": student.UserID},
	}
	update := bson.M{
		"$push": bson.M{"enrolled_students": mongoEnrolledStudent{
			UserID:     student.UserID,
			EnrolledAt: student.EnrolledAt.UTC(),
		}},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("add student: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *CourseRepository) ForEachStudent(ctx context.Context, fn func(courseID, title string, student domain.EnrolledStudent) error) error {
	opts := options.Find().SetProjection(bson.M{"title": 1, "enrolled_students": 1})
	cur, err := r.col.Find(ctx, bson.M{"enrolled_students.0": bson.M{"$exists": true}}, opts)
	if err != nil {
		return fmt.Errorf("scan courses: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var mc mongoCourse
		if err := cur.Decode(&mc); err != nil {
			return fmt.Errorf("decode course: %w", err)
		}
		for _, s := range mc.EnrolledStudents {
			if err := fn(mc.ID.Hex(), mc.Title, domain.EnrolledStudent{UserID: s.UserID, EnrolledAt: s.EnrolledAt.UTC()}); err != nil {
				return err
			}
		}
	}
	return cur.Err()
}

// EnsureIndexes creates necessary indexes on the courses collection.
func (r *CourseRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "enrolled_students.user_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
