package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "conf.json", "-url", "http://localhost"},
			allowed: []string{"-c"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "equals form",
			args:    []string{"-backend=memory", "-table", "products"},
			allowed: []string{"-backend"},
			want:    []string{"-backend=memory"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "dash token is not consumed as value",
			args:    []string{"-c", "-config=alt.json"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "-config=alt.json"},
		},
		{
			name:    "repeated flag keeps order",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFileFromArgs(t *testing.T) {
	assert.Equal(t, "/etc/gopanel.json", ConfigFileFromArgs([]string{"-c", "/etc/gopanel.json"}))
	assert.Equal(t, "long.json", ConfigFileFromArgs([]string{"-config=long.json", "-backend", "memory"}))
	assert.Equal(t, "2.json", ConfigFileFromArgs([]string{"-c", "1.json", "-config", "2.json"}))
	assert.Empty(t, ConfigFileFromArgs([]string{"-backend", "memory"}))
}
