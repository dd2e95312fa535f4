package fatfs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    []string
		wantErr bool
	}{
		{name: "root", path: "/", want: nil},
		{name: "single component", path: "/docs", want: []string{"docs"}},
		{name: "nested", path: "/docs/reports/q3", want: []string{"docs", "reports", "q3"}},
		{name: "repeated separators", path: "//docs//x", want: []string{"docs", "x"}},
		{name: "trailing separator", path: "/docs/", want: []string{"docs"}},
		{name: "empty", path: "", wantErr: true},
		{name: "relative", path: "docs", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("splitPath() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitParent(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantParent string
		wantName   string
		wantErr    bool
	}{
		{name: "top level", path: "/docs", wantParent: "/", wantName: "docs"},
		{name: "nested", path: "/docs/hello.txt", wantParent: "/docs", wantName: "hello.txt"},
		{name: "deep", path: "/a/b/c", wantParent: "/a/b", wantName: "c"},
		{name: "root has no parent", path: "/", wantErr: true},
		{name: "relative", path: "docs/x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent, name, err := splitParent(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitParent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if parent != tt.wantParent || name != tt.wantName {
				t.Errorf("splitParent() = (%q, %q), want (%q, %q)", parent, name, tt.wantParent, tt.wantName)
			}
		})
	}
}

func TestResolve_root(t *testing.T) {
	fs := newTestFs(t)

	res, err := fs.resolve("/")
	require.NoError(t, err)

	assert.True(t, res.found)
	assert.Equal(t, "/", res.name)
	assert.EqualValues(t, RootCluster, res.entryCluster)
	assert.EqualValues(t, RootCluster, res.entry.FirstCluster)
	assert.True(t, res.entry.IsDir())
}

func TestResolve_walksNestedDirectories(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, fs.Mkdir("/docs"))
	require.NoError(t, fs.Mkdir("/docs/reports"))
	require.NoError(t, fs.Create("/docs/reports/q3"))

	docs, err := fs.resolve("/docs")
	require.NoError(t, err)
	require.True(t, docs.found)
	assert.EqualValues(t, RootCluster, docs.parentCluster)
	assert.Equal(t, 0, docs.entryIndex)
	assert.True(t, docs.entry.IsDir())

	reports, err := fs.resolve("/docs/reports")
	require.NoError(t, err)
	require.True(t, reports.found)
	assert.Equal(t, docs.entryCluster, reports.parentCluster)

	q3, err := fs.resolve("/docs/reports/q3")
	require.NoError(t, err)
	require.True(t, q3.found)
	assert.Equal(t, reports.entryCluster, q3.parentCluster)
	assert.Equal(t, "q3", q3.name)
	assert.Equal(t, "q3", q3.entry.EntryName())
	assert.False(t, q3.entry.IsDir())
}

func TestResolve_missingComponent(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, fs.Mkdir("/docs"))

	res, err := fs.resolve("/docs/nope")
	require.NoError(t, err)
	assert.False(t, res.found)
	assert.Equal(t, "nope", res.name)

	docs, err := fs.resolve("/docs")
	require.NoError(t, err)
	// The parent stays at the last directory that did resolve.
	assert.Equal(t, docs.entryCluster, res.parentCluster)
}

func TestResolve_missingTopLevel(t *testing.T) {
	fs := newTestFs(t)

	res, err := fs.resolve("/nope")
	require.NoError(t, err)
	assert.False(t, res.found)
	assert.EqualValues(t, RootCluster, res.parentCluster)
}

func TestResolve_nameMatchIsByteExact(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, fs.Create("/File"))

	res, err := fs.resolve("/file")
	require.NoError(t, err)
	assert.False(t, res.found, "name matching must not fold case")
}
