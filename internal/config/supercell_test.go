package config

import "testing"

func TestParseSupercell(t *testing.T) {
	tests := []struct {
		in      string
		want    [3]int
		wantErr bool
	}{
		{"3,3,1", [3]int{3, 3, 1}, false},
		{"2x2x2", [3]int{2, 2, 2}, false},
		{" 1, 4 ,1 ", [3]int{1, 4, 1}, false},
		{"3,3", [3]int{}, true},
		{"3,3,1,1", [3]int{}, true},
		{"3,0,1", [3]int{}, true},
		{"a,b,c", [3]int{}, true},
		{"", [3]int{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSupercell(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSupercell(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSupercell(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
