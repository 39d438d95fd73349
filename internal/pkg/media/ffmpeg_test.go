package media

import (
	"errors"
	"testing"
)

func hasPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestEncodeArgs(t *testing.T) {
	args := EncodeArgs("in.mov", "out.mp4", 60)

	pairs := [][2]string{
		{"-i", "in.mov"},
		{"-t", "60.000"},
		{"-c:v", "libx264"},
		{"-c:a", "aac"},
		{"-preset", "ultrafast"},
		{"-crf", "28"},
		{"-movflags", "+faststart"},
		{"-threads", "0"},
	}
	for _, p := range pairs {
		if !hasPair(args, p[0], p[1]) {
			t.Fatalf("missing %s %s in %v", p[0], p[1], args)
		}
	}

	var sawOut, sawOverwrite bool
	for _, a := range args {
		sawOut = sawOut || a == "out.mp4"
		sawOverwrite = sawOverwrite || a == "-y"
	}
	if !sawOut || !sawOverwrite {
		t.Fatalf("expected output path and -y in %v", args)
	}
}

func TestFrameArgs(t *testing.T) {
	args := FrameArgs("out.mp4", "thumb.jpg", 30, 320, 240)
	for _, p := range [][2]string{
		{"-i", "out.mp4"},
		{"-ss", "30"},
		{"-vframes", "1"},
		{"-q:v", "2"},
		{"-vf", "scale=320:240"},
	} {
		if !hasPair(args, p[0], p[1]) {
			t.Fatalf("missing %s %s in %v", p[0], p[1], args)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		err  bool
	}{
		{raw: "12.500000\n", want: 12.5},
		{raw: "90", want: 90},
		{raw: "N/A", err: true},
		{raw: "", err: true},
		{raw: "0", err: true},
		{raw: "-3", err: true},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.raw)
		if tc.err {
			if !errors.Is(err, ErrUnknownDuration) {
				t.Fatalf("ParseDuration(%q) expected ErrUnknownDuration, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseDuration(%q) = %v, %v", tc.raw, got, err)
		}
	}
}
