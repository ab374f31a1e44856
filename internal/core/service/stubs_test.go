package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coursehub/coursehub-api/internal/core/domain"
	"github.com/coursehub/coursehub-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// User repository stub. Guarded by a mutex so concurrent tests can share it.
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	nextID    int
	createErr error
	findErr   error
	appendErr error
	touched   []string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.EnrolledCourses = append([]domain.EnrolledCourse(nil), u.EnrolledCourses...)
	return &clone
}

func (r *stubUserRepo) put(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = cloneUser(u)
}

func (r *stubUserRepo) get(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email || u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, update ports.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.Bio != nil {
		u.Profile.Bio = *update.Bio
	}
	if update.Phone != nil {
		u.Profile.Phone = *update.Phone
	}
	if update.Address != nil {
		u.Profile.Address = *update.Address
	}
	if update.DateOfBirth != nil {
		dob := *update.DateOfBirth
		u.Profile.DateOfBirth = &dob
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) TouchLastLogin(_ context.Context, id string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLogin = ts
	r.touched = append(r.touched, id)
	return nil
}

func (r *stubUserRepo) AppendEnrollment(_ context.Context, userID string, entry domain.EnrolledCourse) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return false, r.appendErr
	}
	u, ok := r.users[userID]
	if !ok {
		return false, nil
	}
	if u.IsEnrolled(entry.CourseID) {
		return false, nil
	}
	u.EnrolledCourses = append(u.EnrolledCourses, entry)
	return true, nil
}

func (r *stubUserRepo) ForEachEnrollment(_ context.Context, fn func(string, domain.EnrolledCourse) error) error {
	r.mu.Lock()
	snapshot := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		snapshot = append(snapshot, cloneUser(u))
	}
	r.mu.Unlock()

	for _, u := range snapshot {
		for _, ec := range u.EnrolledCourses {
			if err := fn(u.ID, ec); err != nil {
				return err
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Course repository stub.
// ---------------------------------------------------------------------------

type stubCourseRepo struct {
	mu        sync.Mutex
	courses   map[string]*domain.Course
	order     []string
	listCalls int
	listErr   error
	addErr    error
	upsertErr error
	// listHook runs after ListActive has taken its snapshot and before it
	// returns, outside the lock.
	listHook func(ctx context.Context) error
}

func newStubCourseRepo() *stubCourseRepo {
	return &stubCourseRepo{courses: make(map[string]*domain.Course)}
}

func cloneCourse(c *domain.Course) *domain.Course {
	if c == nil {
		return nil
	}
	clone := *c
	clone.EnrolledStudents = append([]domain.EnrolledStudent(nil), c.EnrolledStudents...)
	return &clone
}

func (r *stubCourseRepo) put(c *domain.Course) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[c.ID]; !ok {
		r.order = append(r.order, c.ID)
	}
	r.courses[c.ID] = cloneCourse(c)
}

func (r *stubCourseRepo) get(id string) *domain.Course {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneCourse(r.courses[id])
}

func (r *stubCourseRepo) FindByID(_ context.Context, id string) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	return cloneCourse(c), nil
}

func (r *stubCourseRepo) ListActive(ctx context.Context) ([]*domain.Course, error) {
	r.mu.Lock()
	r.listCalls++
	if r.listErr != nil {
		err := r.listErr
		r.mu.Unlock()
		return nil, err
	}
	var out []*domain.Course
	for _, id := range r.order {
		if c := r.courses[id]; c.IsActive {
			out = append(out, cloneCourse(c))
		}
	}
	hook := r.listHook
	r.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *stubCourseRepo) Upsert(_ context.Context, course *domain.Course) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return false, r.upsertErr
	}
	for _, id := range r.order {
		existing := r.courses[id]
		if existing.Title != course.Title {
			continue
		}
		students := existing.EnrolledStudents
		updated := cloneCourse(course)
		updated.ID = existing.ID
		updated.EnrolledStudents = students
		r.courses[id] = updated
		return false, nil
	}
	c := cloneCourse(course)
	c.ID = fmt.Sprintf("course-%d", len(r.order)+1)
	c.EnrolledStudents = []domain.EnrolledStudent{}
	r.courses[c.ID] = c
	r.order = append(r.order, c.ID)
	return true, nil
}

func (r *stubCourseRepo) AddStudent(_ context.Context, courseID string, student domain.EnrolledStudent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return false, r.addErr
	}
	c, ok := r.courses[courseID]
	if !ok {
		return false, domain.ErrCourseNotFound
	}
	if c.HasStudent(student.UserID) {
		return false, nil
	}
	c.EnrolledStudents = append(c.EnrolledStudents, student)
	return true, nil
}

func (r *stubCourseRepo) ForEachStudent(_ context.Context, fn func(string, string, domain.EnrolledStudent) error) error {
	r.mu.Lock()
	snapshot := make([]*domain.Course, 0, len(r.order))
	for _, id := range r.order {
		snapshot = append(snapshot, cloneCourse(r.courses[id]))
	}
	r.mu.Unlock()

	for _, c := range snapshot {
		for _, s := range c.EnrolledStudents {
			if err := fn(c.ID, c.Title, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Session store, lock and cache stubs.
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	saveErr  error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *stubSessionStore) Save(_ context.Context, session *domain.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	copy := *session
	s.sessions[session.ID] = &copy
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copy := *session
	return &copy, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type stubLocker struct {
	mu         sync.Mutex
	held       map[string]bool
	acquireErr error
	busy       bool
	released   int
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: make(map[string]bool)}
}

func (l *stubLocker) Acquire(_ context.Context, userID, courseID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	if l.busy {
		return false, nil
	}
	key := userID + ":" + courseID
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *stubLocker) Release(_ context.Context, userID, courseID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, userID+":"+courseID)
	l.released++
	return nil
}

// noopLocker always grants the lock, leaving the stores as the only guard.
type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string, string) (bool, error) { return true, nil }
func (noopLocker) Release(context.Context, string, string) error         { return nil }

type stubCatalogCache struct {
	mu          sync.Mutex
	courses     []*domain.Course
	hit         bool
	generation  int64
	getErr      error
	genErr      error
	setErr      error
	sets        int
	rejected    int
	invalidated int
}

func (c *stubCatalogCache) Get(context.Context) ([]*domain.Course, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	return c.courses, c.hit, nil
}

func (c *stubCatalogCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.genErr != nil {
		return 0, c.genErr
	}
	return c.generation, nil
}

func (c *stubCatalogCache) Set(_ context.Context, generation int64, courses []*domain.Course) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return false, c.setErr
	}
	if generation != c.generation {
		c.rejected++
		return false, nil
	}
	c.courses = courses
	c.hit = true
	return true, nil
}

func (c *stubCatalogCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.generation++
	c.courses = nil
	c.hit = false
	return nil
}
