package icon

import "testing"

// TestClassify verifies the day and night tables, the cloudy band, and the
// extreme band, including the exact 800/900 boundaries.
func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		code  int32
		night bool
		want  ID
	}{
		{"thunder day", 211, false, Thunder},
		{"thunder night", 211, true, Thunder},
		{"drizzle day", 300, false, RainDay},
		{"drizzle night", 321, true, RainNight},
		{"band 4 empty", 450, false, None},
		{"rain day", 500, false, RainDay},
		{"rain night", 511, true, RainNight},
		{"snow", 601, false, Snow},
		{"mist", 741, true, Mist},
		{"clear day", 800, false, ClearDay},
		{"clear night", 800, true, ClearNight},
		{"partly cloudy day", 801, false, PartlyCloudyDay},
		{"partly cloudy night", 801, true, PartlyCloudyNight},
		{"cloudy 802", 802, false, Cloudy},
		{"cloudy 804 night", 804, true, Cloudy},
		{"cloudy band out of range", 805, false, None},
		{"cloudy band top", 899, false, None},
		{"extreme 900 day", 900, false, Extreme},
		{"extreme 962 night", 962, true, Extreme},
		{"zero", 0, false, None},
		{"band 1", 150, true, None},
		{"negative", -150, false, None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.code, tt.night); got != tt.want {
				t.Errorf("Classify(%d, %v) = %v, want %v", tt.code, tt.night, got, tt.want)
			}
		})
	}
}

// TestClassify_PrimaryBandIgnoresRemainder verifies that for codes 0..800 the
// result depends only on code/100 and the night flag.
func TestClassify_PrimaryBandIgnoresRemainder(t *testing.T) {
	for _, night := range []bool{false, true} {
		for code := int32(0); code <= 800; code++ {
			base := (code / 100) * 100
			if got, want := Classify(code, night), Classify(base, night); got != want {
				t.Fatalf("Classify(%d, %v) = %v, want %v (same as %d)", code, night, got, want, base)
			}
		}
	}
}

// TestClassify_ExtremeBand verifies that every code >= 900 yields Extreme for day and night.
func TestClassify_ExtremeBand(t *testing.T) {
	for code := int32(900); code < 1200; code++ {
		if got := Classify(code, false); got != Extreme {
			t.Fatalf("Classify(%d, false) = %v, want %v", code, got, Extreme)
		}
		if got := Classify(code, true); got != Extreme {
			t.Fatalf("Classify(%d, true) = %v, want %v", code, got, Extreme)
		}
	}
}

func TestClassify_Idempotent(t *testing.T) {
	for _, code := range []int32{-1, 0, 200, 500, 800, 801, 850, 900, 1000} {
		first := Classify(code, true)
		for i := 0; i < 3; i++ {
			if got := Classify(code, true); got != first {
				t.Fatalf("Classify(%d) changed between calls: %v then %v", code, first, got)
			}
		}
	}
}

func TestIsNight(t *testing.T) {
	const sunrise, sunset = 1000, 2000
	tests := []struct {
		now  int64
		want bool
	}{
		{999, true},
		{1000, false},
		{1500, false},
		{2000, false},
		{2001, true},
	}
	for _, tt := range tests {
		if got := IsNight(tt.now, sunrise, sunset); got != tt.want {
			t.Errorf("IsNight(%d) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestID_String(t *testing.T) {
	if got := ClearNight.String(); got != "weather_clear_night" {
		t.Errorf("ClearNight.String() = %q, want weather_clear_night", got)
	}
	if got := ID(999).String(); got != "none" {
		t.Errorf("ID(999).String() = %q, want none", got)
	}
	b, err := Extreme.MarshalText()
	if err != nil || string(b) != "weather_extreme" {
		t.Errorf("Extreme.MarshalText() = %q, %v, want weather_extreme", b, err)
	}
}
