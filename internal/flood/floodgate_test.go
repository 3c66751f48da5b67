package flood

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestFloodgate_AllowWithinLimit(t *testing.T) {
	fg := New(3)
	defer fg.Stop()

	for i := 0; i < 3; i++ {
		if !fg.Allow("-100", "7") {
			t.Fatalf("Allow() = false on message %d, want true", i+1)
		}
	}

	if fg.Allow("-100", "7") {
		t.Error("Allow() = true above limit, want false")
	}
}

func TestFloodgate_SendersAreIndependent(t *testing.T) {
	fg := New(1)
	defer fg.Stop()

	if !fg.Allow("-100", "7") {
		t.Fatal("first sender blocked")
	}
	if !fg.Allow("-100", "8") {
		t.Error("second sender blocked by first sender's traffic")
	}
	if fg.Allow("-100", "7") {
		t.Error("first sender allowed above limit")
	}
}

func TestFloodgate_ChatsAreIndependent(t *testing.T) {
	fg := New(1)
	defer fg.Stop()

	if !fg.Allow("-100", "7") {
		t.Fatal("first chat blocked")
	}
	if !fg.Allow("-200", "7") {
		t.Error("same sender blocked in a different chat")
	}
}

func TestFloodgate_WindowSlides(t *testing.T) {
	fg := New(1)
	defer fg.Stop()

	if !fg.Allow("-100", "7") {
		t.Fatal("first message blocked")
	}

	// Backdate the recorded timestamp to just outside the window.
	fg.mutex.Lock()
	entry := fg.entries["-100:7"]
	entry.timestamps[0] = time.Now().Add(-windowDuration - time.Second)
	fg.mutex.Unlock()

	if !fg.Allow("-100", "7") {
		t.Error("Allow() = false after window elapsed, want true")
	}
}

func TestFloodgate_Cleanup(t *testing.T) {
	fg := New(5)
	defer fg.Stop()

	fg.Allow("-100", "7")

	fg.mutex.Lock()
	fg.entries["-100:7"].lastSeen = time.Now().Add(-idleTimeout - time.Minute)
	fg.mutex.Unlock()

	fg.performCleanup()

	fg.mutex.Lock()
	_, exists := fg.entries["-100:7"]
	fg.mutex.Unlock()

	if exists {
		t.Error("idle entry survived cleanup")
	}
}

func TestFloodgate_ConcurrentAccess(t *testing.T) {
	fg := New(1000)
	defer fg.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := fmt.Sprintf("%d", i)
			for j := 0; j < 100; j++ {
				fg.Allow("-100", sender)
			}
		}(i)
	}
	wg.Wait()

	// Every sender stayed under the limit, so all messages were recorded.
	fg.mutex.Lock()
	defer fg.mutex.Unlock()
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("-100:%d", i)
		if got := len(fg.entries[key].timestamps); got != 100 {
			t.Errorf("entries[%s] = %d timestamps, want 100", key, got)
		}
	}
}
