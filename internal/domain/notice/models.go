package notice

import (
	"errors"
	"time"
)

const (
	TypeGeneral   = "General"
	TypeImportant = "Important"
	TypeUrgent    = "Urgent"
	TypeInfo      = "Info"
)

var (
	ErrNotFound     = errors.New("notice not found")
	ErrInvalidInput = errors.New("title and message are required")
	ErrInvalidType  = errors.New("invalid notice type")
)

type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"noticeType"`
	AuthorID  string    `json:"authorId"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Input struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"noticeType"`
	Active  *bool  `json:"active"`
}

func ValidType(t string) bool {
	switch t {
	case TypeGeneral, TypeImportant, TypeUrgent, TypeInfo:
		return true
	}
	return false
}
