package account

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("account not found")
	ErrLoginExists = errors.New("login already exists")
)

type Account struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"password_hash"`
	FullName     string    `json:"full_name"`
	University   string    `json:"university"`
	Program      string    `json:"program"`
	ProgramID    string    `json:"program_id"`
	GroupName    string    `json:"group"`
	ExamDate     string    `json:"exam_date"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Meta is the student-facing projection of an account. It never carries
// credential material.
type Meta struct {
	University string `json:"university"`
	Program    string `json:"program"`
	ProgramID  string `json:"program_id"`
	Group      string `json:"group"`
	FullName   string `json:"full_name"`
	ExamDate   string `json:"exam_date"`
}

func (a Account) Meta() Meta {
	return Meta{
		University: a.University,
		Program:    a.Program,
		ProgramID:  a.ProgramID,
		Group:      a.GroupName,
		FullName:   a.FullName,
		ExamDate:   a.ExamDate,
	}
}
