package model

import (
	"strings"
	"testing"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
)

func TestWatchDefaults(t *testing.T) {
	var got Watch
	_ = defaults.Set(&got)
	exp := Watch{
		BacklogSize: 16384,
	}
	assert.Equal(t, exp, got)
}

func TestParseRoot(t *testing.T) {
	data := `
watches:
  - name: configs
    path: /etc/app
    recursive: true
  - name: docs
    path: /srv/docs
    backlog_size: 1024
http_server:
  address: localhost:9125
report_cron: "0 * * * * *"
`
	root, err := ParseRoot(strings.NewReader(data))
	assert.NoError(t, err)
	assert.Len(t, root.Watches, 2)
	assert.Equal(t, "configs", root.Watches[0].Name)
	assert.True(t, root.Watches[0].Recursive)
	assert.Equal(t, 16384, root.Watches[0].BacklogSize)
	assert.Equal(t, 1024, root.Watches[1].BacklogSize)
	assert.Equal(t, "tcp", root.HTTPServer.Network)
	assert.Equal(t, "localhost:9125", root.HTTPServer.Address)
	assert.Equal(t, "0 * * * * *", root.ReportCron)
}
