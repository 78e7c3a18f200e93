package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session.
func (r *CacheKeyStruct) UserSessionKey(userID int64) string {
	return fmt.Sprintf("login:%d", userID)
}

// AttemptStartKey returns the cache key for the server-recorded start time
// of a user's exam attempt.
func (r *CacheKeyStruct) AttemptStartKey(examID, userID int64) string {
	return fmt.Sprintf("user:%d:exam:%d:attempt_start", userID, examID)
}

// AttemptProgressKey returns the cache key for a user's in-progress attempt
// snapshot (answers, question pointer, remaining time).
func (r *CacheKeyStruct) AttemptProgressKey(examID, userID int64) string {
	return fmt.Sprintf("user:%d:exam:%d:progress", userID, examID)
}

var CacheKey = NewCacheKeyStruct()
