package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"scribe/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed groups.yml
var defaultGroups string

// GroupFixture is one group entry of a YAML fixture file.
type GroupFixture struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// LoadGroups decodes a YAML list of groups.
func LoadGroups(r io.Reader) ([]GroupFixture, error) {
	var fixtures []GroupFixture
	if err := yaml.NewDecoder(r).Decode(&fixtures); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode group fixtures: %w", err)
	}
	for i, f := range fixtures {
		if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Slug) == "" {
			return nil, fmt.Errorf("group fixture %d: title and slug are required", i)
		}
	}
	return fixtures, nil
}

// DefaultGroups returns the groups bundled with the binary.
func DefaultGroups() []GroupFixture {
	fixtures, err := LoadGroups(strings.NewReader(defaultGroups))
	if err != nil {
		panic(err)
	}
	return fixtures
}

// Groups upserts fixtures by slug and returns the stored rows.
func Groups(db *gorm.DB, fixtures []GroupFixture) ([]models.Group, error) {
	groups := make([]models.Group, 0, len(fixtures))
	for _, f := range fixtures {
		group := models.Group{Title: f.Title, Slug: f.Slug, Description: f.Description}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description"}),
		}).Create(&group).Error; err != nil {
			return nil, fmt.Errorf("upsert group %s: %w", f.Slug, err)
		}
		if err := db.Where("slug = ?", f.Slug).First(&group).Error; err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}
