package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session.
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:student:%d", studentID)
}

// SessionQuestionsKey returns the cache key for the question set of one
// viva attempt.
func (r *CacheKeyStruct) SessionQuestionsKey(studentID, experimentID int, sessionID uuid.UUID) string {
	return fmt.Sprintf("student:%d:experiment:%d:session:%s:questions", studentID, experimentID, sessionID)
}

var CacheKey = NewCacheKeyStruct()
