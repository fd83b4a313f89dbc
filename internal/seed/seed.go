package seed

import (
	"context"
	"fmt"

	"scribe/internal/middleware"
	"scribe/internal/models"

	"gorm.io/gorm"
)

// Summary counts what a run created.
type Summary struct {
	Groups   int
	Users    int
	Posts    int
	Comments int
	Follows  int
}

// Seeder populates a database with groups, authors, posts, comments and follows.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	groups  []GroupFixture
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts), groups: DefaultGroups()}
}

// WithGroups replaces the bundled group fixtures.
func (s *Seeder) WithGroups(fixtures []GroupFixture) *Seeder {
	s.groups = fixtures
	return s
}

// Run seeds numUsers users and numPosts posts. Roughly a third of the posts
// are published outside any group.
func (s *Seeder) Run(ctx context.Context, numUsers, numPosts int) (Summary, error) {
	var sum Summary
	if numUsers <= 0 && numPosts > 0 {
		return sum, fmt.Errorf("posts need at least one user")
	}
	f := s.factory
	db := s.db.WithContext(ctx)

	var groups []models.Group
	if f.opts.DryRun {
		for i, g := range s.groups {
			groups = append(groups, models.Group{ID: uint(i + 1), Title: g.Title, Slug: g.Slug})
		}
	} else {
		var err error
		if groups, err = Groups(db, s.groups); err != nil {
			return sum, err
		}
	}
	sum.Groups = len(groups)

	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return sum, err
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[f.rnd.Intn(len(users))]
		var group *models.Group
		if len(groups) > 0 && f.rnd.Intn(3) != 0 {
			group = &groups[f.rnd.Intn(len(groups))]
		}
		posts = append(posts, f.BuildPost(author, group))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return sum, fmt.Errorf("create posts: %w", err)
	}
	sum.Posts = len(posts)

	for _, post := range posts {
		for n := f.rnd.Intn(3); n > 0; n-- {
			if _, err := f.CreateComment(post, users[f.rnd.Intn(len(users))]); err != nil {
				return sum, fmt.Errorf("create comment: %w", err)
			}
			sum.Comments++
		}
	}

	for _, follower := range users {
		for _, author := range users {
			if follower.ID == author.ID || f.rnd.Intn(4) != 0 {
				continue
			}
			if err := f.Follow(follower, author); err != nil {
				return sum, fmt.Errorf("create follow: %w", err)
			}
			sum.Follows++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		"dry_run", f.opts.DryRun,
		"groups", sum.Groups, "users", sum.Users, "posts", sum.Posts,
		"comments", sum.Comments, "follows", sum.Follows)
	return sum, nil
}
