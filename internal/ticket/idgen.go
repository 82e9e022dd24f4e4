package ticket

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator は作成時刻由来のチケットIDを生成する。
// IDはミリ秒精度のUNIXタイムスタンプ文字列で、作成順に単調増加する。
// 同一ミリ秒内に複数の生成要求が来た場合は前回値+1を採番し、
// 並行生成でも衝突しない。
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// NewIDGenerator はIDGeneratorを生成する。
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next は新しいチケットIDを返す。
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= g.last {
		now = g.last + 1
	}
	g.last = now

	return strconv.FormatInt(now, 10)
}
