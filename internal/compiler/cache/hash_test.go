package cache

import "testing"

func TestHashContent(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		expected string
	}{
		{
			name:     "empty content",
			content:  []byte(""),
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "simple content",
			content:  []byte("hello world"),
			expected: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HashContent(tt.content)
			if result != tt.expected {
				t.Errorf("HashContent() = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestHashSource(t *testing.T) {
	a := HashSource("self.radius > 0")
	b := HashSource("self.radius > 0")
	c := HashSource("self.radius >= 0")

	if a != b {
		t.Errorf("HashSource() not deterministic: %s != %s", a, b)
	}
	if a == c {
		t.Errorf("HashSource() collided for different sources")
	}
	if len(a) != 64 {
		t.Errorf("HashSource() returned hash of length %d, expected 64", len(a))
	}
}
