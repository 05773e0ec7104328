package migrations

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_late.sql":  {Data: []byte("SELECT 10;")},
		"m/002_early.sql": {Data: []byte("SELECT 2;")},
		"m/README.md":     {Data: []byte("ignored")},
	}

	got, err := Load(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Version)
	assert.Equal(t, "002_early.sql", got[0].Name)
	assert.Equal(t, 10, got[1].Version)
	assert.Equal(t, "SELECT 10;", got[1].SQL)
}

func TestLoad_RejectsBadNames(t *testing.T) {
	_, err := Load(fstest.MapFS{"m/init.sql": {Data: []byte("x")}}, "m")
	assert.Error(t, err)

	_, err = Load(fstest.MapFS{"m/abc_init.sql": {Data: []byte("x")}}, "m")
	assert.Error(t, err)

	_, err = Load(fstest.MapFS{
		"m/001_a.sql":  {Data: []byte("x")},
		"m/0001_b.sql": {Data: []byte("y")},
	}, "m")
	assert.ErrorContains(t, err, "version 1")
}

func TestPending_SkipsApplied(t *testing.T) {
	all := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	todo := pending(all, map[int]bool{1: true, 3: true})
	require.Len(t, todo, 1)
	assert.Equal(t, 2, todo[0].Version)

	assert.Empty(t, pending(all, map[int]bool{1: true, 2: true, 3: true}))
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := Load(postgresFS, "postgres")
	require.NoError(t, err)
	require.Len(t, pg, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{pg[0].Version, pg[1].Version, pg[2].Version})

	ch, err := Load(clickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	for _, m := range ch {
		stmts, err := splitStatements(m.SQL)
		require.NoError(t, err, m.Name)
		for _, stmt := range stmts {
			assert.True(t, strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS"), "%s: %.40s", m.Name, stmt)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	sql := `
-- header comment
CREATE TABLE a (x String) ENGINE = MergeTree() ORDER BY x;

CREATE TABLE b (
    y Int64
) ENGINE = MergeTree()
ORDER BY y;
`
	stmts, err := splitStatements(sql)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE b"))

	_, err = splitStatements("SELECT 'a;b'")
	assert.Error(t, err)

	stmts, err = splitStatements("SELECT 'it''s'; SELECT 1;")
	require.NoError(t, err)
	assert.Len(t, stmts, 2)
}

func TestSplitDatabase(t *testing.T) {
	server, db, err := splitDatabase("clickhouse://default:pw@localhost:9000/analytics?dial_timeout=5s")
	require.NoError(t, err)
	assert.Equal(t, "analytics", db)
	assert.Equal(t, "clickhouse://default:pw@localhost:9000?dial_timeout=5s", server)

	_, _, err = splitDatabase("clickhouse://localhost:9000")
	assert.Error(t, err)
}
