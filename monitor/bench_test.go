package monitor

import (
	"context"
	"testing"

	"github.com/jonwraymond/provwatch/probe"
)

func BenchmarkCheckOne_Probe(b *testing.B) {
	o, _ := New(Config{GlobalMaxChecks: 1 << 30, ClientMaxChecks: 1 << 30}, map[string]probe.Prober{"alpha": succeeding()})
	defer o.Close()
	_ = o.Initialize([]string{"alpha"})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = o.CheckOne(ctx, "alpha", TriggerAutomatic)
	}
}

func BenchmarkCheckOne_Denied(b *testing.B) {
	o, _ := New(Config{}, map[string]probe.Prober{"alpha": succeeding()})
	defer o.Close()
	_ = o.Initialize([]string{"alpha"})
	ctx := context.Background()
	_, _ = o.CheckOne(ctx, "alpha", TriggerAutomatic)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = o.CheckOne(ctx, "alpha", TriggerAutomatic)
	}
}

func BenchmarkListDown(b *testing.B) {
	probers := make(map[string]probe.Prober)
	ids := make([]string, 0, 64)
	for i := range 64 {
		id := string(rune('a'+i%26)) + string(rune('a'+i/26))
		probers[id] = succeeding()
		ids = append(ids, id)
	}
	o, _ := New(Config{}, probers)
	defer o.Close()
	_ = o.Initialize(ids)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = o.ListDown(0)
	}
}
