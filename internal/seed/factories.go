// Package seed fills a database with demo content. It is meant for
// development environments and tests only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"scribe/internal/middleware"
	"scribe/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options tune a seeding run.
type Options struct {
	// DryRun builds entities and assigns synthetic ids without writing.
	DryRun bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// MaxDays spreads post dates over this many days back.
	MaxDays int
	// Seed makes generated content reproducible when non-zero.
	Seed int64
}

// Factory builds domain entities and persists them.
type Factory struct {
	db     *gorm.DB
	opts   Options
	faker  *gofakeit.Faker
	rnd    *rand.Rand
	hash   string
	nextID uint
}

func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		rnd:    rand.New(rand.NewSource(seed)),
		nextID: 1000,
	}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), f.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	f.hash = string(hash)
	return f.hash, nil
}

// CreateUser persists a user with a generated unique username.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	email := f.faker.Email()
	user := &models.User{
		Username:  fmt.Sprintf("%s%d", f.faker.Username(), f.faker.Number(100, 99999)),
		Email:     &email,
		Password:  hash,
		FirstName: f.faker.FirstName(),
		LastName:  f.faker.LastName(),
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// BuildPost returns an unsaved post by author, inside group when group is set.
func (f *Factory) BuildPost(author *models.User, group *models.Group) *models.Post {
	post := &models.Post{
		Text:      f.faker.Paragraph(1, f.rnd.Intn(4)+2, 12, "\n\n"),
		AuthorID:  &author.ID,
		CreatedAt: f.pastTime(),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	return post
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rnd.Intn(f.opts.MaxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// CreatePostsBatch persists posts in one statement.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		middleware.Logger.Info("[dry-run] posts built", "count", len(posts))
		return nil
	}
	return f.db.Omit("Author", "Group").CreateInBatches(posts, 100).Error
}

// CreateComment persists a generated comment by author on post.
func (f *Factory) CreateComment(post *models.Post, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Text:      f.faker.Sentence(f.rnd.Intn(12) + 3),
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rnd.Intn(48)+1) * time.Hour),
	}
	if now := time.Now(); comment.CreatedAt.After(now) {
		comment.CreatedAt = now
	}
	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}
	if err := f.db.Omit("Post", "Author").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// Follow makes follower follow author. Self edges and duplicates are skipped.
func (f *Factory) Follow(follower, author *models.User) error {
	if follower.ID == author.ID || f.opts.DryRun {
		return nil
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).
		Omit("User", "Author").
		Create(&models.Follow{UserID: follower.ID, AuthorID: author.ID}).Error
}
