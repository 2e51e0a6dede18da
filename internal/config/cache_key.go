package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a student's single-device session.
func (r *CacheKeyStruct) UserSessionKey(userID int64) string {
	return fmt.Sprintf("login:%d", userID)
}

// AttemptStartKey returns the cache key for an attempt's start timestamp.
func (r *CacheKeyStruct) AttemptStartKey(attemptID int64) string {
	return fmt.Sprintf("attempt:%d:started_at", attemptID)
}

// AttemptAnswersKey returns the cache key for an attempt's autosaved answers.
func (r *CacheKeyStruct) AttemptAnswersKey(attemptID int64) string {
	return fmt.Sprintf("attempt:%d:answers", attemptID)
}

// ExamPaperKey returns the cache key for an exam's student-facing paper.
func (r *CacheKeyStruct) ExamPaperKey(examID int64) string {
	return fmt.Sprintf("exam:%d:paper", examID)
}

// ExamDurationKey returns the cache key for an exam's duration in minutes.
func (r *CacheKeyStruct) ExamDurationKey(examID int64) string {
	return fmt.Sprintf("exam:%d:duration", examID)
}

// JudgeLanguagesKey returns the cache key for the judge's language catalog.
func (r *CacheKeyStruct) JudgeLanguagesKey() string {
	return "judge:languages"
}

// ExpiryDeadlinesKey returns the sorted-set key holding attempt deadlines.
func (r *CacheKeyStruct) ExpiryDeadlinesKey() string {
	return "attempt:deadlines"
}

var CacheKey = NewCacheKeyStruct()
