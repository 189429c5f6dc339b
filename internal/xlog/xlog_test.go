package xlog_test

import (
	"testing"

	"github.com/tangle-network/frost-blueprint/internal/xlog"
)

func TestNopNeverPanics(t *testing.T) {
	l := xlog.Nop
	l.Debugw("debug", "k", "v")
	l.Infow("info")
	l.Warnw("warn", "count", 3)
	l.Errorw("error", "err", "boom")
	l.With("component", "test").Infow("scoped")
}

func TestNewProducesUsableLogger(t *testing.T) {
	l := xlog.New()
	if l == nil {
		t.Fatal("New returned nil Logger")
	}
	l.With("run", "1").Infow("hello")
}
