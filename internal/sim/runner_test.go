package sim

import (
	"testing"
	"time"
)

func TestRunnerRunStop(t *testing.T) {
	s := newTestSim(50000)
	r := NewRunner(s)
	r.Interval = time.Millisecond

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for !r.Running() {
		select {
		case <-deadline:
			t.Fatal("runner never reported running")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	r.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	if r.Running() {
		t.Fatal("still running after stop")
	}

	var now float64
	r.Do(func(sm *Simulation) { now = sm.Clock.Now() })
	if now <= 0 {
		t.Fatal("clock did not advance while running")
	}
}

func TestRunnerOnDay(t *testing.T) {
	s := newTestSim(50000)
	// 1ms wall ticks at this scale cross a day boundary roughly every tick
	s.Clock.SetScale(700_000)

	dayCh := make(chan int, 16)
	onDay := func(day int) {
		select {
		case dayCh <- day:
		default:
		}
	}
	r := &Runner{Sim: s, Interval: time.Millisecond, OnDay: onDay}

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	select {
	case day := <-dayCh:
		if day < 1 {
			t.Fatalf("OnDay fired with day %d", day)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnDay never fired")
	}

	r.Stop()
	<-done
}

func TestRunnerDoSerializes(t *testing.T) {
	s := newTestSim(50000)
	r := NewRunner(s)

	const workers = 8
	const perWorker = 50
	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for j := 0; j < perWorker; j++ {
				r.Do(func(sm *Simulation) {
					sm.Ledger.AdjustBalance(1, "test credit", 0)
				})
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	var balance float64
	r.Do(func(sm *Simulation) { balance = sm.Ledger.Balance() })
	if balance != 50000+workers*perWorker {
		t.Fatalf("balance = %v, lost updates under concurrency", balance)
	}
}
