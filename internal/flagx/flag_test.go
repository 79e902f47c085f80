package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		names []string
		want  []string
	}{
		{
			name:  "separate value",
			args:  []string{"-s", "http://x", "-p", "4"},
			names: []string{"-s"},
			want:  []string{"-s", "http://x"},
		},
		{
			name:  "equals form",
			args:  []string{"--config=alt.json", "-s", "http://x"},
			names: []string{"-c", "--config"},
			want:  []string{"--config=alt.json"},
		},
		{
			name:  "order preserved",
			args:  []string{"-p", "4", "-x", "1", "-r", "2"},
			names: []string{"-p", "-r"},
			want:  []string{"-p", "4", "-r", "2"},
		},
		{
			name:  "unknown and positional ignored",
			args:  []string{"-x", "1", "--y=2", "positional"},
			names: []string{"-c"},
			want:  []string{},
		},
		{
			name:  "trailing flag without value",
			args:  []string{"-c"},
			names: []string{"-c"},
			want:  []string{"-c"},
		},
		{
			name:  "value that looks like a flag is not consumed",
			args:  []string{"-c", "-notvalue"},
			names: []string{"-c"},
			want:  []string{"-c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filter(tt.args, tt.names...))
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv(ConfigEnv, "")

	assert.Equal(t, "a.json", ConfigPath([]string{"-c", "a.json", "-s", "x"}))
	assert.Equal(t, "b.json", ConfigPath([]string{"-config=b.json"}))
	assert.Equal(t, "", ConfigPath([]string{"-s", "x"}))

	t.Setenv(ConfigEnv, "env.json")
	assert.Equal(t, "env.json", ConfigPath(nil))
	assert.Equal(t, "flag.json", ConfigPath([]string{"-c", "flag.json"}))
}
