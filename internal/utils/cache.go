package utils

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// Cache 全局缓存实例
var Cache = cache.New(5*time.Minute, 10*time.Minute)

// InitCache 重新初始化缓存
func InitCache() {
	// 默认过期时间5分钟，清理间隔10分钟
	Cache = cache.New(5*time.Minute, 10*time.Minute)
}

// CacheGet 获取缓存值
func CacheGet(key string) (interface{}, bool) {
	return Cache.Get(key)
}

// CacheSet 设置缓存值
func CacheSet(key string, value interface{}, duration time.Duration) {
	Cache.Set(key, value, duration)
}

// CacheDelete 删除缓存
func CacheDelete(key string) {
	Cache.Delete(key)
}

// CacheDeletePrefix 删除指定前缀的所有缓存
func CacheDeletePrefix(prefix string) {
	for key := range Cache.Items() {
		if strings.HasPrefix(key, prefix) {
			Cache.Delete(key)
		}
	}
}

// CacheClear 清空所有缓存
func CacheClear() {
	Cache.Flush()
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// SearchCache 带 TTL 的 LRU 缓存，用于列表/搜索结果
type SearchCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewSearchCache size 是最大缓存条数，ttl 是数据有效期
func NewSearchCache[T any](size int, ttl time.Duration) *SearchCache[T] {
	c, _ := lru.New[string, CacheItem[T]](size)
	return &SearchCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入（已存在则覆盖）
func (c *SearchCache[T]) Set(key string, value T) {
	c.storage.Add(key, CacheItem[T]{
		Value:     value,
		ExpiredAt: time.Now().Add(c.ttl),
	})
}

// Get 读取，过期条目视为不存在并移除
func (c *SearchCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.Value, true
}

func (c *SearchCache[T]) Clear() {
	c.storage.Purge()
}

func (c *SearchCache[T]) Len() int {
	return c.storage.Len()
}

// PurgeExpired 移除所有已过期条目，返回移除数量
func (c *SearchCache[T]) PurgeExpired() int {
	now := time.Now()
	removed := 0
	for _, key := range c.storage.Keys() {
		if item, ok := c.storage.Peek(key); ok && now.After(item.ExpiredAt) {
			c.storage.Remove(key)
			removed++
		}
	}
	return removed
}
