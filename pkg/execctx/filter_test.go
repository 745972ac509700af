package execctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterEnvironAllowList(t *testing.T) {
	env := []string{
		"PATH=/usr/bin",
		"HOME=/home/u",
		"USER=u",
		"SHELL=/bin/zsh",
		"LANG=en_US.UTF-8",
		"PWD=/work",
		"TERM=xterm-256color",
		"LC_ALL=C",
		"LC_MESSAGES=C",
		"EDITOR=vim",
		"GOPATH=/go",
	}
	got := FilterEnviron(env)

	for _, name := range []string{"PATH", "HOME", "USER", "SHELL", "LANG", "PWD", "TERM", "LC_ALL", "LC_MESSAGES"} {
		assert.Contains(t, got, name)
	}
	assert.NotContains(t, got, "EDITOR")
	assert.NotContains(t, got, "GOPATH")
}

func TestFilterEnvironDropsSensitive(t *testing.T) {
	env := []string{
		"API_KEY=xyz",
		"AUTH_TOKEN=abc",
		"AWS_SECRET_ACCESS_KEY=aws",
		"GITHUB_TOKEN=gh",
		"GITLAB_TOKEN=gl",
		"MY_SERVICE_PASSWORD=p",
		"db_credential=c",
		"stripe_secret=s",
	}
	got := FilterEnviron(env)
	assert.Empty(t, got)
}

func TestFilterEnvironDenyBeatsAllow(t *testing.T) {
	// A hypothetical allow-listed name that matches a sensitive suffix
	// must still be dropped: deny wins.
	got := FilterEnviron([]string{"LC_SECRET=x", "TERM_TOKEN=y"})
	assert.Empty(t, got)
}

func TestFilterEnvironOrderIndependent(t *testing.T) {
	fwd := FilterEnviron([]string{"HOME=/h", "PATH=/p", "LC_ALL=C"})
	rev := FilterEnviron([]string{"LC_ALL=C", "PATH=/p", "HOME=/h"})
	assert.Equal(t, fwd, rev)
}

func TestFilterEnvironMalformedEntries(t *testing.T) {
	got := FilterEnviron([]string{"NOEQUALS", "HOME=/h"})
	assert.Equal(t, map[string]string{"HOME": "/h"}, got)
}
