package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserLoginKey returns the cache key holding a user's active JWT ID.
func (r *CacheKeyStruct) UserLoginKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// SessionOwnerKey returns the cache key binding an exam session to its creator.
func (r *CacheKeyStruct) SessionOwnerKey(sessionID string) string {
	return fmt.Sprintf("exam:session:%s:owner", sessionID)
}

// UserActiveSessionKey returns the cache key for a user's active exam session.
func (r *CacheKeyStruct) UserActiveSessionKey(userID int) string {
	return fmt.Sprintf("user:%d:active_session", userID)
}

// ProctorChannel returns the Redis PubSub channel for a session's live
// proctoring stream.
func (r *CacheKeyStruct) ProctorChannel(sessionID string) string {
	return fmt.Sprintf("exam:session:%s:proctor", sessionID)
}

var CacheKey = NewCacheKeyStruct()
