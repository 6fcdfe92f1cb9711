package main

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/imu/cmd/imu/console"
	"github.com/mklimuk/imu/config"
)

func TestParseByte(t *testing.T) {
	tests := []struct {
		given    string
		expected byte
		err      bool
	}{
		{"0x6a", 0x6A, false},
		{"6B", 0x6B, false},
		{" 0X10 ", 0x10, false},
		{"", 0, true},
		{"0x100", 0, true},
		{"zz", 0, true},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			v, err := parseByte(test.given)
			if test.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, v)
		})
	}
}

func runProfile(t *testing.T, args ...string) (config.Profile, error) {
	t.Helper()
	var p config.Profile
	var perr error
	app := cli.NewApp()
	app.Flags = busFlags
	app.Action = func(c *cli.Context) error {
		p, perr = profile(c)
		return nil
	}
	require.NoError(t, app.Run(append([]string{"imu"}, args...)))
	return p, perr
}

func TestProfile_Flags(t *testing.T) {
	p, err := runProfile(t)
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), p)

	p, err = runProfile(t, "--adapter", "mcp2221", "--address", "106")
	require.NoError(t, err)
	assert.Equal(t, config.AdapterMCP2221, p.Bus.Adapter)
	assert.Equal(t, uint8(0x6A), p.Bus.Address)

	p, err = runProfile(t, "--bus", "spi", "--adapter", "gobot", "--cs", "1", "--speed", "1000000")
	require.NoError(t, err)
	assert.Equal(t, config.Bus{Kind: config.BusSPI, Adapter: config.AdapterGobot, Address: 0x6B, CS: 1, Speed: 1_000_000}, p.Bus)

	_, err = runProfile(t, "--bus", "spi", "--adapter", "mcp2221")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestConfigDump(t *testing.T) {
	var out bytes.Buffer
	console.SetOutput(&out, &out)
	defer console.SetOutput(os.Stdout, os.Stderr)
	assert.Zero(t, run([]string{"imu", "config", "dump"}))
	p, err := config.Parse(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), p)
}

func TestPoll(t *testing.T) {
	calls := 0
	err := poll(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	ctx, cancel := context.WithCancel(context.Background())
	calls = 0
	err = poll(ctx, 0, time.Hour, func() error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
