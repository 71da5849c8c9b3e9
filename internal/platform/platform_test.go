package platform

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		goos         string
		want         Name
		wantFallback bool
	}{
		{"darwin", Darwin, false},
		{"linux", Linux, false},
		{"windows", Windows, false},
		{"freebsd", Windows, true},
		{"", Windows, true},
	}
	for _, tt := range tests {
		got, fallback := Detect(tt.goos)
		assert.Equal(t, tt.want, got, "Detect(%q)", tt.goos)
		assert.Equal(t, tt.wantFallback, fallback, "Detect(%q) fallback", tt.goos)
	}
}

func TestResolveUnix(t *testing.T) {
	root := filepath.Join("/", "work", "pf")
	for _, name := range []Name{Darwin, Linux} {
		info := Resolve(root, name)
		bin := filepath.Join(root, "libraries", "clang-12", string(name), "bin")
		assert.Equal(t, filepath.Join(bin, "clang"), info.CC)
		assert.Equal(t, filepath.Join(bin, "clang++"), info.CXX)
		assert.Equal(t, filepath.Join(bin, "llvm-rc"), info.RC)
		assert.Equal(t, filepath.Join(root, "libraries", "ninja", string(name), "ninja"), info.Generator)
	}
}

func TestResolveWindows(t *testing.T) {
	info := Resolve(`C:\work\pf`, Windows)
	for _, p := range []string{info.CC, info.CXX, info.RC, info.Generator} {
		assert.NotContains(t, p, `\`)
		assert.True(t, strings.HasSuffix(p, ".exe"), "%q lacks .exe", p)
		assert.True(t, strings.HasPrefix(p, "C:/work/pf/libraries/"), "%q", p)
	}
	assert.True(t, strings.HasSuffix(info.CXX, "/windows/bin/clang++.exe"))
}

func TestResolveDistinct(t *testing.T) {
	root := t.TempDir()
	seen := map[string]Name{}
	for _, name := range []Name{Darwin, Linux, Windows} {
		info := Resolve(root, name)
		for _, p := range []string{info.CC, info.CXX, info.RC, info.Generator} {
			prev, dup := seen[p]
			require.False(t, dup, "%s path %q already used by %s", name, p, prev)
			seen[p] = name
		}
	}
}

func TestHostFallback(t *testing.T) {
	info := Host(t.TempDir(), "plan9")
	assert.Equal(t, Windows, info.Name)
	assert.True(t, info.Fallback)
	assert.Equal(t, "plan9", info.OS)
	assert.True(t, strings.HasSuffix(info.CC, "clang.exe"))
}

func TestHostOS(t *testing.T) {
	assert.Equal(t, "linux", Host("/proj", "linux").OS)
	assert.Equal(t, "freebsd", Host("/proj", "FreeBSD").OS)
	assert.Equal(t, "darwin", Resolve("/proj", Darwin).OS)
}

func TestRequireMobile(t *testing.T) {
	assert.NoError(t, RequireMobile(Darwin, "iOS"))

	for _, host := range []Name{Linux, Windows} {
		err := RequireMobile(host, "iOS")
		var uh *UnsupportedHostError
		require.True(t, errors.As(err, &uh))
		assert.Equal(t, host, uh.Host)
	}
}
