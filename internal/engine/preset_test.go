package engine

import (
	"reflect"
	"testing"
)

func TestGetPreset(t *testing.T) {
	cases := []struct {
		name   string
		depth  int
		rating int
	}{
		{"level1", 1, 600},
		{"level3", 3, 1200},
		{"level5", 5, 1800},
	}
	for _, tc := range cases {
		preset, err := GetPreset(tc.name)
		if err != nil {
			t.Fatalf("GetPreset(%s): %v", tc.name, err)
		}
		if preset.Depth != tc.depth || preset.Rating != tc.rating {
			t.Errorf("GetPreset(%s) = %+v, want depth %d rating %d", tc.name, preset, tc.depth, tc.rating)
		}
	}
}

func TestGetPresetCaseInsensitive(t *testing.T) {
	preset, err := GetPreset("  Level4 ")
	if err != nil {
		t.Fatalf("GetPreset: %v", err)
	}
	if preset.Name != "level4" || preset.Depth != 4 {
		t.Errorf("GetPreset(Level4) = %+v", preset)
	}
}

func TestGetPresetUnknown(t *testing.T) {
	if _, err := GetPreset("grandmaster"); err == nil {
		t.Fatal("unknown preset must error")
	}
}

func TestPresetNames(t *testing.T) {
	want := []string{"level1", "level2", "level3", "level4", "level5"}
	if got := PresetNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("PresetNames() = %v, want %v", got, want)
	}
}
