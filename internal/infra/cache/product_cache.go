package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// 公開商品一覧のリードスルーキャッシュ。
// キーに世代番号を含め、商品が書き換わったら世代を上げて無効化する。
type ProductListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProductListCache(rdb *redis.Client, ttl time.Duration) *ProductListCache {
	return &ProductListCache{rdb: rdb, ttl: ttl}
}

const genKey = "products:gen"

type cachedList struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
}

func (c *ProductListCache) key(ctx context.Context, queryKey string) (string, error) {
	gen, err := c.rdb.Get(ctx, genKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("products:v%d:%s", gen, queryKey), nil
}

// Get はキャッシュを引く。無ければ ok=false（redis.Nilはミス扱い）。
func (c *ProductListCache) Get(ctx context.Context, queryKey string) ([]model.Product, int64, bool) {
	key, err := c.key(ctx, queryKey)
	if err != nil {
		return nil, 0, false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, 0, false
	}
	if err != nil {
		return nil, 0, false
	}

	var entry cachedList
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, 0, false
	}
	return entry.Products, entry.Total, true
}

func (c *ProductListCache) Set(ctx context.Context, queryKey string, products []model.Product, total int64) {
	key, err := c.key(ctx, queryKey)
	if err != nil {
		return
	}

	raw, err := json.Marshal(cachedList{Products: products, Total: total})
	if err != nil {
		return
	}

	//キャッシュ書き込み失敗は握りつぶす（次のリクエストがDBから読む）
	_ = c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate は世代番号を進めて既存キーを無効化する。
func (c *ProductListCache) Invalidate(ctx context.Context) {
	_ = c.rdb.Incr(ctx, genKey).Err()
}
