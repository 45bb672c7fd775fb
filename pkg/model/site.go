package model

import (
	"regexp"
	"strings"
)

// MaxSlugLength bounds a slug so it stays usable as a URL path segment
const MaxSlugLength = 255

var slugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Site is a site record addressed by its slug
type Site struct {
	PrimaryKey int    `gorm:"column:primary_key;primaryKey;autoIncrement" json:"primaryKey"`
	Slug       string `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Name       string `gorm:"column:name;not null" json:"name"`
}

func (Site) TableName() string {
	return "sites"
}

func (s *Site) PrimaryKeyValue() int {
	return s.PrimaryKey
}

func (s *Site) SetPrimaryKey(key int) {
	s.PrimaryKey = key
}

func (s *Site) NaturalKeyValue() string {
	return s.Slug
}

// Validate trims the name and checks the slug format
func (s *Site) Validate() error {
	s.Name = strings.TrimSpace(s.Name)

	switch {
	case s.Slug == "":
		return invalid("slug is required")
	case len(s.Slug) > MaxSlugLength:
		return invalid("slug must be at most %d characters", MaxSlugLength)
	case !slugPattern.MatchString(s.Slug):
		return invalid("slug %q may only contain lowercase letters, digits, '-' and '_'", s.Slug)
	case s.Name == "":
		return invalid("name is required")
	}
	return nil
}
