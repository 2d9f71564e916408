package resilience

import (
	"testing"
	"time"
)

func TestBackoff_SetReplaces(t *testing.T) {
	b := NewBackoff()

	b.Set("alpha", epoch.Add(time.Hour))
	b.Set("alpha", epoch.Add(time.Second))

	until, ok := b.Until("alpha")
	if !ok || !until.Equal(epoch.Add(time.Second)) {
		t.Errorf("Until() = %v, %v, want %v", until, ok, epoch.Add(time.Second))
	}
}

func TestBackoff_Clear(t *testing.T) {
	b := NewBackoff()

	b.Set("alpha", epoch.Add(time.Hour))
	b.Set("beta", epoch.Add(time.Hour))

	b.Clear("alpha")
	if _, ok := b.Until("alpha"); ok {
		t.Error("alpha deadline survived Clear")
	}
	if _, ok := b.Until("beta"); !ok {
		t.Error("Clear(alpha) dropped beta")
	}
}
