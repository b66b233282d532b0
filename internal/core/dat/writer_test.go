package dat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAll_AndAlreadyParsed(t *testing.T) {
	dir := t.TempDir()
	tables := map[string]*Table{
		"1": {RecordName: "REC01", Header: []string{"CASEID"}, Rows: [][]string{{"AAAAAAAAAAAA"}}},
	}

	require.False(t, AlreadyParsed(dir, "511.CMIR71"))
	require.NoError(t, WriteAll(dir, "511.CMIR71", tables))
	require.True(t, AlreadyParsed(dir, "511.CMIR71"))

	content, err := os.ReadFile(filepath.Join(dir, "511.CMIR71.REC01.csv"))
	require.NoError(t, err)
	require.Equal(t, "CASEID\nAAAAAAAAAAAA\n", string(content))
}
