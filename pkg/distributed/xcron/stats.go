package xcron

import (
	"sync"
	"time"
)

// anonymousJob 未命名任务的统计归属。
const anonymousJob = "anonymous"

// JobStats 单个任务的执行统计快照。
type JobStats struct {
	Name          string
	Executions    int64
	Failures      int64
	LastRun       time.Time
	LastDuration  time.Duration
	LastError     error
	TotalDuration time.Duration
}

// Successes 返回成功次数。
func (s JobStats) Successes() int64 { return s.Executions - s.Failures }

// Stats 按任务名聚合执行统计，并发安全。
type Stats struct {
	mu   sync.RWMutex
	jobs map[string]*JobStats
}

func newStats() *Stats {
	return &Stats{jobs: make(map[string]*JobStats)}
}

func (s *Stats) record(name string, d time.Duration, err error) {
	if name == "" {
		name = anonymousJob
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	js, ok := s.jobs[name]
	if !ok {
		js = &JobStats{Name: name}
		s.jobs[name] = js
	}
	js.Executions++
	if err != nil {
		js.Failures++
	}
	js.LastRun = time.Now()
	js.LastDuration = d
	js.LastError = err
	js.TotalDuration += d
}

// Job 返回指定任务的统计快照。
func (s *Stats) Job(name string) (JobStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	js, ok := s.jobs[name]
	if !ok {
		return JobStats{}, false
	}
	return *js, true
}

// TotalExecutions 返回所有任务的总执行次数。
func (s *Stats) TotalExecutions() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, js := range s.jobs {
		n += js.Executions
	}
	return n
}

// FailureCount 返回所有任务的总失败次数。
func (s *Stats) FailureCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, js := range s.jobs {
		n += js.Failures
	}
	return n
}
