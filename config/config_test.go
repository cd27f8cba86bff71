package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dirwatch.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o666))
	return path
}

func TestLoadPathTracksChanges(t *testing.T) {
	cfg := NewConfig()

	path := writeConfig(t, `
watches:
  - name: configs
    path: /etc/app
  - name: docs
    path: /srv/docs
    recursive: true
http_server:
  address: localhost:9125
`)
	changes, err := cfg.LoadPath(path)
	require.NoError(t, err)
	assert.Len(t, changes, 3)

	// Loading the identical file again reports nothing.
	changes, err = cfg.LoadPath(path)
	require.NoError(t, err)
	assert.Len(t, changes, 0)

	assert.Len(t, cfg.Watches(), 2)
	docs := cfg.Watch("docs")
	require.NotNil(t, docs)
	assert.True(t, docs.Recursive)
	assert.Equal(t, 16384, docs.BacklogSize)
	require.NotNil(t, cfg.Server())
	assert.Equal(t, "localhost:9125", cfg.Server().Address)
}

func TestLoadPathDeletesRemovedRows(t *testing.T) {
	cfg := NewConfig()

	path := writeConfig(t, `
watches:
  - name: configs
    path: /etc/app
  - name: docs
    path: /srv/docs
`)
	_, err := cfg.LoadPath(path)
	require.NoError(t, err)

	path = writeConfig(t, `
watches:
  - name: configs
    path: /etc/app-v2
`)
	changes, err := cfg.LoadPath(path)
	require.NoError(t, err)

	var created, updated, deleted int
	for _, ch := range changes {
		switch {
		case ch.Created():
			created++
		case ch.Updated():
			updated++
		case ch.Deleted():
			deleted++
		}
	}
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 1, deleted)
	assert.Nil(t, cfg.Watch("docs"))
}

func TestValidate(t *testing.T) {
	cfg := NewConfig()

	for _, tc := range []struct {
		name    string
		content string
		errLike string
	}{
		{
			name: "missing name",
			content: `
watches:
  - path: /etc/app
`,
			errLike: "has no name",
		},
		{
			name: "missing path",
			content: `
watches:
  - name: configs
`,
			errLike: "has no path",
		},
		{
			name: "duplicate name",
			content: `
watches:
  - name: configs
    path: /a
  - name: configs
    path: /b
`,
			errLike: "duplicate watch name",
		},
		{
			name: "bad cron",
			content: `
report_cron: "bogus"
`,
			errLike: "bad report_cron",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := cfg.LoadPath(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errLike)
		})
	}
}

func TestReportSchedule(t *testing.T) {
	cfg := NewConfig()
	assert.Nil(t, cfg.ReportSchedule())

	path := writeConfig(t, `
report_cron: "@every 1m"
`)
	_, err := cfg.LoadPath(path)
	require.NoError(t, err)
	assert.NotNil(t, cfg.ReportSchedule())
}
