package rodos

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndRead(t *testing.T) {
	disk := testDisk(t)

	entry, err := disk.Create("report", "txt", 20, Alpha())
	require.NoError(t, err)
	assert.Equal(t, uint32(20), entry.Size)

	content, err := disk.ReadFile("report", "txt")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRST", string(content))

	// 20 bytes at 16 bytes per cluster need exactly two clusters.
	chain, err := disk.fat.chain(entry.FirstCluster)
	require.NoError(t, err)
	assert.Len(t, chain, 2)
}

func TestCreateZeroLength(t *testing.T) {
	disk := testDisk(t)

	entry, err := disk.Create("empty", "txt", 0, Alpha())
	require.NoError(t, err)
	assert.Equal(t, noCluster, entry.FirstCluster)

	content, err := disk.ReadFile("empty", "txt")
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestCreateDuplicate(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Create("a", "txt", 4, Num())
	require.NoError(t, err)

	freeBefore := disk.FreeClusters()
	_, err = disk.Create("a", "txt", 4, Num())
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.Equal(t, freeBefore, disk.FreeClusters())
}

func TestCreateTrimsIdentifiers(t *testing.T) {
	disk := testDisk(t)

	entry, err := disk.Create("averylongname", "text", 4, Num())
	require.NoError(t, err)
	assert.Equal(t, "averylon", entry.Name)
	assert.Equal(t, "tex", entry.Extension)
}

func TestCreateOutOfSpace(t *testing.T) {
	disk, err := New(afero.NewMemMapFs(), "tiny.img", 16, 4, TableWidth16)
	require.NoError(t, err)

	freeBefore := disk.FreeClusters()
	_, err = disk.Create("big", "bin", 64, Alpha())
	require.ErrorIs(t, err, ErrOutOfSpace)
	assert.Equal(t, freeBefore, disk.FreeClusters(), "failed create must not leak clusters")
}

func TestCreateSourceErrorIsAtomic(t *testing.T) {
	disk := testDisk(t)
	errBroken := errors.New("broken source")

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := NewMockSource(ctrl)
	source.EXPECT().Read(gomock.Any()).Return(0, errBroken)

	freeBefore := disk.FreeClusters()
	_, err := disk.Create("a", "txt", 20, source)
	require.ErrorIs(t, err, errBroken)

	assert.Equal(t, freeBefore, disk.FreeClusters())
	_, err = disk.ReadFile("a", "txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAppend(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Create("log", "txt", 10, Alpha())
	require.NoError(t, err)

	require.NoError(t, disk.Append("log", "txt", 10, Num()))

	content, err := disk.ReadFile("log", "txt")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGHIJ0123456789", string(content))
}

func TestAppendToZeroLengthFile(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Create("empty", "txt", 0, nil)
	require.NoError(t, err)

	require.NoError(t, disk.Append("empty", "txt", 5, Hex()))

	content, err := disk.ReadFile("empty", "txt")
	require.NoError(t, err)
	assert.Equal(t, "01234", string(content))
}

func TestAppendReusesClusterSlack(t *testing.T) {
	disk := testDisk(t)

	// 10 bytes occupy one 16 byte cluster, leaving 6 bytes of slack.
	entry, err := disk.Create("f", "", 10, Alpha())
	require.NoError(t, err)

	require.NoError(t, disk.Append("f", "", 6, Num()))

	chain, err := disk.fat.chain(entry.FirstCluster)
	require.NoError(t, err)
	assert.Len(t, chain, 1, "an append that fits the slack must not grow the chain")

	content, err := disk.ReadFile("f", "")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGHIJ012345", string(content))
}

func TestAppendErrors(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Mkdir("sub")
	require.NoError(t, err)
	_, err = disk.Create("locked", "txt", 4, Num())
	require.NoError(t, err)
	require.NoError(t, disk.SetAttributes("locked", "txt", SetReadOnly))

	tests := []struct {
		name      string
		entryName string
		wantErr   error
	}{
		{name: "directory", entryName: "sub", wantErr: ErrNotAFile},
		{name: "read-only file", entryName: "locked", wantErr: ErrReadOnly},
		{name: "missing file", entryName: "nope", wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extension := ""
			if tt.entryName == "locked" {
				extension = "txt"
			}
			err := disk.Append(tt.entryName, extension, 4, Num())
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadDirectoryFails(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Mkdir("sub")
	require.NoError(t, err)

	_, err = disk.ReadFile("sub", "")
	require.ErrorIs(t, err, ErrNotAFile)
}

func TestCopy(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Create("orig", "txt", 20, Alpha())
	require.NoError(t, err)

	require.NoError(t, disk.Copy("orig", "txt", "copy", "txt"))

	content, err := disk.ReadFile("copy", "txt")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRST", string(content))

	// The copy must be independent of the original.
	require.NoError(t, disk.Append("copy", "txt", 4, Num()))

	original, err := disk.ReadFile("orig", "txt")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRST", string(original))
}

func TestCopyErrors(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Create("a", "txt", 4, Num())
	require.NoError(t, err)
	_, err = disk.Create("b", "txt", 4, Num())
	require.NoError(t, err)
	_, err = disk.Mkdir("sub")
	require.NoError(t, err)

	require.ErrorIs(t, disk.Copy("a", "txt", "b", "txt"), ErrDuplicateName)
	require.ErrorIs(t, disk.Copy("sub", "", "sub2", ""), ErrNotAFile)
	require.ErrorIs(t, disk.Copy("nope", "txt", "c", "txt"), ErrNotFound)
}

func TestRename(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Create("old", "txt", 8, Alpha())
	require.NoError(t, err)

	require.NoError(t, disk.Rename("old", "txt", "new", "bin"))

	_, err = disk.ReadFile("old", "txt")
	require.ErrorIs(t, err, ErrNotFound)

	content, err := disk.ReadFile("new", "bin")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGH", string(content))
}

func TestRenameErrors(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Create("a", "txt", 4, Num())
	require.NoError(t, err)
	_, err = disk.Create("b", "txt", 4, Num())
	require.NoError(t, err)
	_, err = disk.Create("locked", "txt", 4, Num())
	require.NoError(t, err)
	require.NoError(t, disk.SetAttributes("locked", "txt", SetReadOnly))

	require.ErrorIs(t, disk.Rename("a", "txt", "b", "txt"), ErrDuplicateName)
	require.ErrorIs(t, disk.Rename("locked", "txt", "free", "txt"), ErrReadOnly)
	require.ErrorIs(t, disk.Rename("nope", "txt", "x", "txt"), ErrNotFound)

	// Renaming to the own identity is a refresh, not a duplicate.
	require.NoError(t, disk.Rename("a", "txt", "a", "txt"))
}

func TestRemoveFreesClusters(t *testing.T) {
	disk := testDisk(t)

	freeBefore := disk.FreeClusters()
	_, err := disk.Create("f", "bin", 40, Hex())
	require.NoError(t, err)

	require.NoError(t, disk.Remove("f", "bin"))

	// The file's clusters come back; only the cluster the root chain grew by
	// for the record stays allocated.
	assert.Equal(t, freeBefore-1, disk.FreeClusters())
	_, err = disk.ReadFile("f", "bin")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveReadOnly(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Create("locked", "txt", 4, Num())
	require.NoError(t, err)
	require.NoError(t, disk.SetAttributes("locked", "txt", SetReadOnly))

	require.ErrorIs(t, disk.Remove("locked", "txt"), ErrReadOnly)

	require.NoError(t, disk.SetAttributes("locked", "txt", ClearReadOnly))
	require.NoError(t, disk.Remove("locked", "txt"))
}

func TestRemoveDirectoryRecursively(t *testing.T) {
	disk := testDisk(t)
	freeBefore := disk.FreeClusters()

	_, err := disk.Mkdir("docs")
	require.NoError(t, err)
	require.NoError(t, disk.ChangeDirectory("docs"))
	_, err = disk.Create("a", "txt", 40, Alpha())
	require.NoError(t, err)
	_, err = disk.Mkdir("inner")
	require.NoError(t, err)
	require.NoError(t, disk.ChangeDirectory("inner"))
	_, err = disk.Create("b", "txt", 40, Num())
	require.NoError(t, err)
	require.NoError(t, disk.ChangeDirectory("/"))

	require.NoError(t, disk.Remove("docs", ""))

	// Everything below docs is gone; only the root growth for the docs
	// record remains allocated.
	assert.Equal(t, freeBefore-1, disk.FreeClusters())

	entries, err := disk.ListDir(ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMkdirAndNavigate(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Mkdir("docs")
	require.NoError(t, err)

	require.NoError(t, disk.ChangeDirectory("docs"))
	assert.Equal(t, "/docs", disk.WorkingDirectory())

	_, err = disk.Create("note", "txt", 6, Alpha())
	require.NoError(t, err)

	require.NoError(t, disk.ChangeDirectory(".."))
	assert.Equal(t, "/", disk.WorkingDirectory())

	// The file lives only inside docs.
	_, err = disk.ReadFile("note", "txt")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, disk.ChangeDirectory("./docs/."))
	content, err := disk.ReadFile("note", "txt")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", string(content))
}

func TestMkdirDuplicate(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Mkdir("docs")
	require.NoError(t, err)
	_, err = disk.Mkdir("docs")
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestChangeDirectoryErrors(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Create("file", "", 0, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
	}{
		{name: "missing directory", path: "nope"},
		{name: "into a file", path: "file"},
		{name: "above root", path: "../.."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, disk.ChangeDirectory(tt.path), ErrInvalidPath)
		})
	}
}

func TestWorkingDirectoryFallsBackAfterRemove(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Mkdir("docs")
	require.NoError(t, err)
	require.NoError(t, disk.ChangeDirectory("docs"))
	_, err = disk.Mkdir("inner")
	require.NoError(t, err)
	require.NoError(t, disk.ChangeDirectory("inner"))

	// Yank docs away underneath the working directory.
	require.NoError(t, disk.removeEntryDeep(disk.rootEntry(), "docs", ""))

	// Operations keep working; the cursor falls back to the nearest
	// surviving ancestor.
	entries, err := disk.ListDir(ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, "/", disk.WorkingDirectory())
}

func TestSetAttributes(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Create("f", "txt", 4, Num())
	require.NoError(t, err)

	require.NoError(t, disk.SetAttributes("f", "txt", SetHidden, SetReadOnly))

	entries, err := disk.ListDir(ListOptions{IncludeHidden: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsHidden())
	assert.True(t, entries[0].IsReadOnly())

	// Hidden entries vanish from the default listing.
	entries, err = disk.ListDir(ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSetAttributesConflict(t *testing.T) {
	disk := testDisk(t)

	_, err := disk.Create("f", "txt", 4, Num())
	require.NoError(t, err)

	err = disk.SetAttributes("f", "txt", SetHidden, ClearHidden)
	require.ErrorIs(t, err, ErrConflictingAttributeOp)

	// A rejected sequence must not change anything.
	entries, err := disk.ListDir(ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsHidden())
}
