package mission

import (
	"context"
	"time"
)

// ElapsedSeconds は開始時刻からの経過秒数を1秒ごとに送出するチャネルを返す。
// コンテキストのキャンセルでティッカーを停止しチャネルを閉じる。
// ビューを閉じたらキャンセルすること。タイマーのリークを防ぐ。
func ElapsedSeconds(ctx context.Context, start time.Time) <-chan int {
	ch := make(chan int)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				elapsed := int(now.Sub(start).Seconds())
				if elapsed < 0 {
					elapsed = 0
				}
				select {
				case ch <- elapsed:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}
