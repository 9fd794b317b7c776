package cliflag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedFlagSets(t *testing.T) {
	var fss NamedFlagSets
	fss.FlagSet("mongodb").String("mongodb.connection", "", "Host list.")
	fss.FlagSet("log").String("log.level", "info", "Log level.")
	fss.FlagSet("mongodb").String("mongodb.source", "", "Source name.")

	assert.Equal(t, []string{"mongodb", "log"}, fss.Order)
	require.Contains(t, fss.FlagSets, "mongodb")
	assert.NotNil(t, fss.FlagSets["mongodb"].Lookup("mongodb.source"))
}

func TestPrintSections(t *testing.T) {
	var fss NamedFlagSets
	fss.FlagSet("mongodb").String("mongodb.connection", "", "Host list.")
	fss.FlagSet("empty")
	fss.FlagSet("log").String("log.level", "info", "Log level.")

	var buf bytes.Buffer
	PrintSections(&buf, fss, 0)
	out := buf.String()

	assert.Contains(t, out, "Mongodb flags:")
	assert.Contains(t, out, "--mongodb.connection")
	assert.Contains(t, out, "Log flags:")
	// 空分组不输出
	assert.NotContains(t, out, "Empty flags:")
}
