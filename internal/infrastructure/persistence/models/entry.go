// Package models contains GORM-specific persistence models that map to
// database tables, kept separate so the domain layer stays free of ORM
// concerns.
package models

import (
	"time"

	"github.com/chronicle/backend/internal/domain/archive"
	"github.com/google/uuid"
)

// EntryModel maps an archive entry to the entries table
type EntryModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"size:200;not null"`
	Slug        string    `gorm:"size:200;not null;index"`
	Author      string    `gorm:"size:150;index"`
	Body        string    `gorm:"type:text"`
	PublishedAt time.Time `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the table name
func (EntryModel) TableName() string {
	return "entries"
}

// ToRecord converts the model to an archive record
func (m *EntryModel) ToRecord() archive.Record {
	return archive.NewRecord(m.ID.String(), map[string]any{
		"title":        m.Title,
		"slug":         m.Slug,
		"author":       m.Author,
		"body":         m.Body,
		"published_at": m.PublishedAt,
		"created_at":   m.CreatedAt,
		"updated_at":   m.UpdatedAt,
	})
}

// CommentModel maps a comment to the comments table. Comments are removed
// together with their entry, which makes them the entry's dependents.
type CommentModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntryID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Author    string    `gorm:"size:150"`
	Body      string    `gorm:"type:text"`
	PostedAt  time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

// TableName overrides the table name
func (CommentModel) TableName() string {
	return "comments"
}

// ToRecord converts the model to an archive record
func (m *CommentModel) ToRecord() archive.Record {
	return archive.NewRecord(m.ID.String(), map[string]any{
		"entry_id":   m.EntryID.String(),
		"author":     m.Author,
		"body":       m.Body,
		"posted_at":  m.PostedAt,
		"created_at": m.CreatedAt,
	})
}
