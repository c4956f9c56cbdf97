package schema

import (
	"sync"
	"testing"
)

func TestCodeOfStable(t *testing.T) {
	a := CodeOf("IFCPROJECT")
	b := CodeOf("IFCPROJECT")
	if a != b {
		t.Errorf("CodeOf not stable: %d != %d", a, b)
	}
	if a != IfcProject {
		t.Errorf("CodeOf(IFCPROJECT) = %d, want preloaded constant %d", a, IfcProject)
	}
}

func TestCodeOfCaseInsensitive(t *testing.T) {
	if CodeOf("IfcWall") != CodeOf("IFCWALL") {
		t.Error("CodeOf should be case-insensitive")
	}
}

func TestNameOf(t *testing.T) {
	code := CodeOf("IFCSIUNIT")
	if got := NameOf(code); got != "IFCSIUNIT" {
		t.Errorf("NameOf(%d) = %q, want IFCSIUNIT", code, got)
	}

	if got := NameOf(0xFFFFFFFF); got != Unknown {
		t.Errorf("NameOf(unregistered) = %q, want %q", got, Unknown)
	}
}

func TestDynamicRegistration(t *testing.T) {
	const name = "IFCSOMEFUTUREENTITY"
	code := CodeOf(name)
	if !IsKnown(code) {
		t.Fatal("dynamically registered code should be known")
	}
	if got := NameOf(code); got != name {
		t.Errorf("NameOf(%d) = %q, want %q", code, got, name)
	}
}

func TestPreloadedCodesBijective(t *testing.T) {
	seen := make(map[uint32]string)
	for _, name := range commonTypes {
		code := CodeOf(name)
		if prev, ok := seen[code]; ok {
			t.Errorf("code %d assigned to both %s and %s", code, prev, name)
		}
		seen[code] = name
		if NameOf(code) != name {
			t.Errorf("round trip failed for %s", name)
		}
	}
}

func TestConcurrentRegistration(t *testing.T) {
	var wg sync.WaitGroup
	codes := make([]uint32, 16)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = CodeOf("IFCCONCURRENTTYPE")
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(codes); i++ {
		if codes[i] != codes[0] {
			t.Fatalf("concurrent CodeOf returned different codes: %d != %d", codes[i], codes[0])
		}
	}
}
