package mission

import (
	"context"
	"testing"
	"time"
)

func TestElapsedSeconds_EmitsElapsedTime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now().Add(-30 * time.Second)
	ch := ElapsedSeconds(ctx, start)

	select {
	case elapsed, ok := <-ch:
		if !ok {
			t.Fatal("チャネルが早期に閉じられた")
		}
		// 30秒前に開始したので30前後の値が届く
		if elapsed < 30 || elapsed > 32 {
			t.Errorf("経過秒数 = %d, want 30前後", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("経過秒数が送出されなかった")
	}
}

func TestElapsedSeconds_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ch := ElapsedSeconds(ctx, time.Now())
	cancel()

	// キャンセル後はチャネルが閉じる
	select {
	case _, ok := <-ch:
		if ok {
			// キャンセル直前のティックが届くことはあるが、その後は必ず閉じる
			select {
			case _, ok := <-ch:
				if ok {
					t.Error("キャンセル後もチャネルが開いたまま")
				}
			case <-time.After(2 * time.Second):
				t.Fatal("キャンセル後にチャネルが閉じなかった")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("キャンセル後にチャネルが閉じなかった")
	}
}
