package flagx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.yaml", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "conf.yaml"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept as-is",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "next dash-starting token is not a value",
			args:         []string{"-c", "-n", "69"},
			allowedFlags: []string{"-c", "-n"},
			want:         []string{"-c", "-n", "69"},
		},
		{
			name:         "repeated allowed flag is preserved in order",
			args:         []string{"-i", "5", "-i", "10"},
			allowedFlags: []string{"-i"},
			want:         []string{"-i", "5", "-i", "10"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowedFlags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestConfigFilePath(t *testing.T) {
	assert.Equal(t, "/etc/nw.yaml", ConfigFilePath([]string{"-c", "/etc/nw.yaml"}))
	assert.Equal(t, "/etc/nw.json", ConfigFilePath([]string{"-a", ":1", "-config", "/etc/nw.json"}))
	assert.Equal(t, "x.json", ConfigFilePath([]string{"--config=x.json"}))
	assert.Empty(t, ConfigFilePath([]string{"-x", "1"}))
	assert.Equal(t, "2.json", ConfigFilePath([]string{"-c", "1.json", "-config", "2.json"}))
}
