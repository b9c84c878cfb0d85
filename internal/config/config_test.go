package config

import "testing"

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	c := Default()
	if c.CacheMemoryFraction != 0.75 {
		t.Errorf("CacheMemoryFraction = %v, want 0.75", c.CacheMemoryFraction)
	}
	if c.ReservedFloorBytes != 2<<30 {
		t.Errorf("ReservedFloorBytes = %v, want 2GB", c.ReservedFloorBytes)
	}
	if c.DefaultPreloadRadius != -1 {
		t.Errorf("DefaultPreloadRadius = %v, want -1 (entire range)", c.DefaultPreloadRadius)
	}
}
