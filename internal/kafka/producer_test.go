package kafka

import (
	"context"
	"testing"
	"time"
)

func waitClosed(t *testing.T, p *Producer) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		p.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer goroutine did not exit")
	}
}

// Worker shutdown: cancel context dulu, baru Close. Close harus no-op
// setelah loop sudah menutup inbox sendiri, bukan double close.
func TestProducerCloseAfterCancel(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "test.topic", 4)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	cancel()
	waitClosed(t, p)
	p.Close()
}

// API shutdown: Close dulu (flush), lalu tunggu goroutine.
func TestProducerCloseThenWait(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "test.topic", 4)
	p.Start(context.Background())

	p.Close()
	waitClosed(t, p)
	p.Close()
}
