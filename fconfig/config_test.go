package fconfig

import "testing"

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendCPU {
		t.Errorf("default Backend = %q, want %q", cfg.Backend, BackendCPU)
	}
	if cfg.Eager {
		t.Errorf("default Eager = true, want false")
	}
}

func TestSetOverridesCurrent(t *testing.T) {
	Set(&Config{Workers: 4, Backend: BackendGPU})
	if got := Current().Workers; got != 4 {
		t.Errorf("Current().Workers = %d, want 4", got)
	}
	if got := Current().Backend; got != BackendGPU {
		t.Errorf("Current().Backend = %q, want %q", got, BackendGPU)
	}
}
