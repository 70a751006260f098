package drawdown

import (
	"context"
	"errors"
	"sync"

	"labdash/internal/logger"
	"labdash/internal/record"

	"golang.org/x/sync/singleflight"
)

// FetchFunc 按 unique id 拉取事件日志（外部协作方，通常走存储层）。
type FetchFunc func(ctx context.Context, uid string) ([]record.LogEntry, error)

// State 标记某行扫描结果所处的阶段。
type State string

const (
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// Entry 是缓存槽位：Loaded 时携带 Result，Failed 时携带错误文本。
type Entry struct {
	State  State   `json:"state"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

var errNoUID = errors.New("no uid on live trade")

// Scanner 按行 key 缓存扫描结果。singleflight 保证同一 key 的并发请求
// 只触发一次抓取；单次失败只影响该 key，不影响其它行。失败的判定保留在
// 快照里供汇总展示，但不阻止下一次扫描重试；调用方取消产生的失败不落缓存。
type Scanner struct {
	fetch FetchFunc
	opts  Options

	mu    sync.RWMutex
	cache map[string]Entry
	group singleflight.Group
}

// NewScanner 构造扫描器。
func NewScanner(fetch FetchFunc, opts Options) *Scanner {
	return &Scanner{fetch: fetch, opts: opts, cache: make(map[string]Entry)}
}

// Get 返回 key 的缓存条目（若存在）。
func (s *Scanner) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[key]
	return entry, ok
}

// Result 返回已加载行的判定结果，未加载/失败时为 nil。
func (s *Scanner) Result(key string) *Result {
	entry, ok := s.Get(key)
	if !ok || entry.State != StateLoaded {
		return nil
	}
	return entry.Result
}

// Scan 确保 key 对应的日志被抓取并判定。只有 Loaded 的条目算缓存命中，
// Failed 条目在下一次调用时重试。
func (s *Scanner) Scan(ctx context.Context, key, uid string) Entry {
	if entry, ok := s.Get(key); ok && entry.State == StateLoaded {
		return entry
	}
	out, _, _ := s.group.Do(key, func() (any, error) {
		if entry, ok := s.Get(key); ok && entry.State == StateLoaded {
			return entry, nil
		}
		s.put(key, Entry{State: StateLoading})
		entry, err := s.load(ctx, key, uid)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// 调用方取消不是该行的判定结果,不能占住缓存槽位。
			s.delete(key)
		} else {
			s.put(key, entry)
		}
		return entry, nil
	})
	return out.(Entry)
}

func (s *Scanner) load(ctx context.Context, key, uid string) (Entry, error) {
	if uid == "" {
		return Entry{State: StateFailed, Error: errNoUID.Error()}, nil
	}
	entries, err := s.fetch(ctx, uid)
	if err != nil {
		logger.Warnf("[drawdown] fetch logs failed key=%s uid=%s err=%v", key, uid, err)
		return Entry{State: StateFailed, Error: err.Error()}, err
	}
	res := Scan(entries, s.opts)
	return Entry{State: StateLoaded, Result: &res}, nil
}

func (s *Scanner) put(key string, entry Entry) {
	s.mu.Lock()
	s.cache[key] = entry
	s.mu.Unlock()
}

func (s *Scanner) delete(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
}

// Reset 丢弃全部缓存。底层记录集刷新后必须调用。
func (s *Scanner) Reset() {
	s.mu.Lock()
	s.cache = make(map[string]Entry)
	s.mu.Unlock()
}

// Snapshot 返回当前缓存的浅拷贝，供汇总与接口层读取。
func (s *Scanner) Snapshot() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out
}
